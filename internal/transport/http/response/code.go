package response

import "net/http"

// CodeMsgMap 各状态码的默认提示
var CodeMsgMap = map[int]string{
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Not authenticated",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusTooManyRequests:       "Too many requests",
	http.StatusInternalServerError:   "internal server error",
	http.StatusServiceUnavailable:    "Service is currently unhealthy. Please check the logs for more details.",
	http.StatusGatewayTimeout:        "timeout",
}

func Msg(status int) string {
	if m, ok := CodeMsgMap[status]; ok {
		return m
	}
	return http.StatusText(status)
}
