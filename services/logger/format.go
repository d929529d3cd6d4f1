package logsvc

import (
	"fmt"
	"strconv"
	"strings"
)

func fmtValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
