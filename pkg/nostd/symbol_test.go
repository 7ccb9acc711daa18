package nostd

import "testing"

func TestUnifySymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"BTC/USDT", "BTC/USDT"},
		{"btc/usdt", "BTC/USDT"},
		{"BTCUSDT", "BTC/USDT"},
		{"btcusdt", "BTC/USDT"},
		{"BTC", "BTC/USDT"},
		{" eth ", "ETH/USDT"},
		{"BTC/USDT:USDT", "BTC/USDT"},
		{`"BTCUSDT"`, "BTC/USDT"},
		{"1000PEPEUSDT", "1000PEPE/USDT"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := UnifySymbol(tt.input); got != tt.want {
			t.Errorf("UnifySymbol(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestVenueSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"BTC/USDT", "BTCUSDT"},
		{"btc", "BTCUSDT"},
		{"ETHUSDT", "ETHUSDT"},
	}

	for _, tt := range tests {
		if got := VenueSymbol(tt.input); got != tt.want {
			t.Errorf("VenueSymbol(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBaseAsset(t *testing.T) {
	if got := BaseAsset("BTC/USDT"); got != "BTC" {
		t.Errorf("BaseAsset(BTC/USDT) = %q", got)
	}
	if got := BaseAsset("ethusdt"); got != "ETH" {
		t.Errorf("BaseAsset(ethusdt) = %q", got)
	}
}
