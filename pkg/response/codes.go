package response

// Business codes carried in the envelope body. The transport status stays 200.
const (
	CodeOK               = 200
	CodeFailed           = 4000
	CodeInvalidInput     = 4001
	CodePasswordMismatch = 4002
	CodeOldPasswordWrong = 4003
	CodeUserNotFound     = 4004
)

var messages = map[int]string{
	CodeOK:               "success",
	CodeFailed:           "operation failed",
	CodeInvalidInput:     "invalid input",
	CodePasswordMismatch: "passwords do not match",
	CodeOldPasswordWrong: "old password is incorrect",
	CodeUserNotFound:     "user not found",
}

// Message returns the default text for a business code.
func Message(code int) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return "unknown error"
}
