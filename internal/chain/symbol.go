package chain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"OptionSentinel/internal/model"
)

// OCCSymbol formats an OCC-style ticker: O:<root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func OCCSymbol(underlying string, expiry time.Time, right model.Right, strike float64) string {
	r := "C"
	if right == model.Put {
		r = "P"
	}
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expiry.Format("060102"), r, int(math.Round(strike*1000)))
}
