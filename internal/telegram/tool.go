package telegram

import (
	"strconv"
	"strings"

	"github.com/dushixiang/argus/internal/models"
)

func sideLabel(side string) string {
	if side == models.SideLong {
		return "做多"
	}
	return "做空"
}

func formatFloat(v float64) string {
	str := strconv.FormatFloat(v, 'f', 8, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	if str == "" {
		return "0"
	}
	return str
}
