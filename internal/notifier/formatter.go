package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/strategy"
)

var directionIcons = map[model.Direction]string{
	model.Bullish: "🟢",
	model.Bearish: "🔴",
	model.Neutral: "⚪",
}

// FormatStrategy formats a selected strategy into a Telegram message.
func FormatStrategy(s *model.OptionsStrategy) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", directionIcons[s.Direction], html.EscapeString(s.Name)))
	b.WriteString(fmt.Sprintf("%s | %s | spot %.2f\n\n", s.Family, s.Direction, s.SpotPrice))

	b.WriteString("📜 <b>Legs:</b>\n")
	for _, l := range s.Legs {
		side := "BUY "
		if l.Quantity < 0 {
			side = "SELL"
		}
		b.WriteString(fmt.Sprintf("  %s %d × %s %.2f %s @ %.2f\n",
			side, abs(l.Quantity), l.Contract.Right, l.Contract.Strike, l.Contract.Expiry.Format("2006-01-02"), l.Contract.Premium))
	}

	b.WriteString("\n💰 <b>Payoff:</b>\n")
	b.WriteString(fmt.Sprintf("  Max risk: %.2f\n", s.MaxRisk))
	if s.MaxProfitUnbounded {
		b.WriteString("  Max profit: unlimited\n")
	} else {
		b.WriteString(fmt.Sprintf("  Max profit: %.2f\n", s.MaxProfit))
	}
	be := make([]string, len(s.Breakevens))
	for i, v := range s.Breakevens {
		be[i] = fmt.Sprintf("%.2f", v)
	}
	b.WriteString(fmt.Sprintf("  Breakeven: %s\n", strings.Join(be, " / ")))
	if s.ProfitTarget > 0 {
		b.WriteString(fmt.Sprintf("  Take profit at %.0f%% of max\n", s.ProfitTarget*100))
	}

	g := s.Greeks
	b.WriteString(fmt.Sprintf("\nΔ %+.3f | Γ %+.4f | Θ %+.2f | ν %+.2f\n", g.Delta, g.Gamma, g.Theta, g.Vega))
	b.WriteString(fmt.Sprintf("Confidence: %.0f%%\n", s.Confidence*100))
	return b.String()
}

// FormatDecision renders a decision, including why nothing was selected.
func FormatDecision(d strategy.Decision) string {
	if d.Found() {
		return FormatStrategy(d.Strategy)
	}
	if d.Degraded() {
		return fmt.Sprintf("⚠️ %s %s: evaluation degraded (%s)", d.Symbol, d.Family, html.EscapeString(reasonLabel(d.Reason)))
	}
	return fmt.Sprintf("➖ %s %s: no signal", d.Symbol, d.Family)
}

// FormatScan renders every rule set's decision for one symbol.
func FormatScan(symbol string, decisions []strategy.Decision) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>Scan %s</b>\n\n", symbol))
	for _, d := range decisions {
		b.WriteString(FormatDecision(d))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func reasonLabel(err error) string {
	for _, known := range []error{
		model.ErrInsufficientHistory,
		model.ErrInvalidPriceData,
		model.ErrInvalidVolatilityData,
		model.ErrContractNotFound,
		model.ErrMissingSnapshot,
		model.ErrMissingProfile,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

// HelpText lists the chat commands.
const HelpText = `📖 <b>Commands</b>

/scan SYM - run every rule set
/momentum SYM - momentum breakout
/reversion SYM - mean reversion
/volatility SYM - volatility expansion
/help - this message`

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
