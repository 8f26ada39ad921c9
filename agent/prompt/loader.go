package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

var (
	//go:embed template/policy.txt
	policyRaw string

	//go:embed template/router.txt
	routerRaw string

	//go:embed template/chat.txt
	chatRaw string
)

// PromptSet holds loaded prompt content.
// Policy is a Go template expecting a "tools" value.
type PromptSet struct {
	Policy string
	Router string
	Chat   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Policy: strings.TrimSpace(policyRaw),
		Router: strings.TrimSpace(routerRaw),
		Chat:   strings.TrimSpace(chatRaw),
	}
}

func (p PromptSet) Validate() error {
	missing := make([]string, 0, 3)
	if p.Policy == "" {
		missing = append(missing, "policy")
	}
	if p.Router == "" {
		missing = append(missing, "router")
	}
	if p.Chat == "" {
		missing = append(missing, "chat")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, strings.Join(missing, ", "))
	}
	return nil
}
