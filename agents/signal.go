package agents

import (
	"context"
	"regexp"
	"strings"

	"github.com/dshills/tradingagents-go/agents/model"
)

// Signal is the canonical trade directive extracted from the final
// decision narrative.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalHold    Signal = "HOLD"
	SignalUnknown Signal = "UNKNOWN"
)

var signalPattern = regexp.MustCompile(`\b(BUY|SELL|HOLD)\b`)

// SignalProcessor classifies a free-form decision narrative into a
// Signal.
//
// The keyword scan is authoritative: the last explicit BUY/SELL/HOLD
// directive wins, because the final recommendation overrides earlier
// hedged language. The optional model is consulted only when no
// directive appears at all; classification is best effort and falls
// back to SignalUnknown, never to an error.
type SignalProcessor struct {
	m model.ChatModel
}

// NewSignalProcessor creates a signal extractor. m may be nil to
// disable the model-assisted fallback.
func NewSignalProcessor(m model.ChatModel) *SignalProcessor {
	return &SignalProcessor{m: m}
}

// Extract returns the canonical action stated in text.
func (p *SignalProcessor) Extract(ctx context.Context, text, instrument string) Signal {
	if signal := scanSignal(text); signal != SignalUnknown {
		return signal
	}

	if p.m == nil {
		return SignalUnknown
	}

	messages := []model.Message{
		{Role: model.RoleSystem, Content: "Extract the trade decision from the text. " +
			"Answer with exactly one word: BUY, SELL, or HOLD."},
		{Role: model.RoleUser, Content: "Decision about " + instrument + ":\n" + text},
	}
	out, err := p.m.Chat(ctx, messages, nil)
	if err != nil {
		return SignalUnknown
	}
	return scanSignal(out.Text)
}

// scanSignal finds the last explicit directive in text.
func scanSignal(text string) Signal {
	matches := signalPattern.FindAllString(strings.ToUpper(text), -1)
	if len(matches) == 0 {
		return SignalUnknown
	}
	return Signal(matches[len(matches)-1])
}
