package printing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// BannerNotifier is the fallback used when no notifier is configured. Each
// message is written once as a framed banner and not kept.
type BannerNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBannerNotifier writes banners to out, or stderr when out is nil
func NewBannerNotifier(out io.Writer) *BannerNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &BannerNotifier{out: out}
}

// Notify writes the banner
func (n *BannerNotifier) Notify(_ context.Context, severity Severity, message string) {
	label := "[" + strings.ToUpper(severity.String()) + "] "
	rule := strings.Repeat("-", len([]rune(label+message)))

	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.out, "%s\n%s%s\n%s\n", rule, label, message, rule)
}

var _ Notifier = (*BannerNotifier)(nil)
