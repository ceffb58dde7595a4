package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/tradingagents-go/agents/model"
)

func TestSignalProcessor_Extract(t *testing.T) {
	p := NewSignalProcessor(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want Signal
	}{
		{"plain hold", "HOLD, risk is balanced", SignalHold},
		{"plain buy", "Strong momentum. FINAL TRANSACTION PROPOSAL: **BUY**", SignalBuy},
		{"plain sell", "Deteriorating fundamentals. SELL.", SignalSell},
		{"last directive wins", "I would normally say BUY, but given the risks: SELL", SignalSell},
		{"hedge then final", "Arguments to sell exist; on balance we should HOLD", SignalHold},
		{"lowercase", "the committee decided to hold", SignalHold},
		{"embedded word not matched", "shareholders are holding steady", SignalUnknown},
		{"no directive", "the outlook is mixed and unclear", SignalUnknown},
		{"empty", "", SignalUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Extract(ctx, tt.text, "AAPL"); got != tt.want {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSignalProcessor_ModelFallback(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "SELL"}}}
	p := NewSignalProcessor(mock)

	got := p.Extract(context.Background(), "reduce exposure significantly", "AAPL")
	if got != SignalSell {
		t.Errorf("Extract = %v, want SELL", got)
	}
	if mock.CallCount() != 1 {
		t.Errorf("model consulted %d times, want 1", mock.CallCount())
	}
}

func TestSignalProcessor_ModelNotConsultedForExplicitDirective(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "SELL"}}}
	p := NewSignalProcessor(mock)

	got := p.Extract(context.Background(), "final call: BUY", "AAPL")
	if got != SignalBuy {
		t.Errorf("Extract = %v, want BUY", got)
	}
	if mock.CallCount() != 0 {
		t.Errorf("model consulted %d times, want 0", mock.CallCount())
	}
}

func TestSignalProcessor_ModelFailureYieldsUnknown(t *testing.T) {
	mock := &model.MockChatModel{Err: errors.New("provider down")}
	p := NewSignalProcessor(mock)

	if got := p.Extract(context.Background(), "unclear narrative", "AAPL"); got != SignalUnknown {
		t.Errorf("Extract = %v, want UNKNOWN", got)
	}
}
