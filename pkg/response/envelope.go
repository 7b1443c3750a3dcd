package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Out writes the uniform envelope. The HTTP status is always 200; callers
// inspect code to tell business success from failure.
//
// Object payloads are merged into the top level of the body, so a payload of
// {"data": {"id": 1}} yields {"code": 200, "msg": "success", "data": {"id": 1}}.
// A payload msg replaces the default message. Any other payload lands under data.
func Out(c *gin.Context, code int, payload any) {
	c.JSON(http.StatusOK, Envelope(c, code, payload))
}

func Envelope(c *gin.Context, code int, payload any) map[string]any {
	body := map[string]any{
		"code":       code,
		"msg":        Message(code),
		"request_id": c.GetString("request_id"),
	}
	if payload == nil {
		return body
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		body["data"] = payload
		return body
	}
	var fields map[string]json.RawMessage
	if len(raw) > 0 && raw[0] == '{' && json.Unmarshal(raw, &fields) == nil {
		for k, v := range fields {
			if k == "code" {
				continue
			}
			body[k] = v
		}
		return body
	}
	body["data"] = json.RawMessage(raw)
	return body
}
