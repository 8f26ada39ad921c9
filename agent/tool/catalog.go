package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

// Catalog holds the tools a controller may dispatch to. The first tool
// registered is the primary tool used when a decision names none.
type Catalog struct {
	order []string
	tools map[string]contractx.Tool
}

func NewCatalog(tools ...contractx.Tool) (*Catalog, error) {
	c := &Catalog{tools: make(map[string]contractx.Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			continue
		}
		name := strings.TrimSpace(t.Name())
		if name == "" {
			return nil, fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
		}
		if _, dup := c.tools[name]; dup {
			return nil, fmt.Errorf("%w: duplicate tool=%s", contractx.ErrValidation, name)
		}
		c.order = append(c.order, name)
		c.tools[name] = t
	}
	if len(c.order) == 0 {
		return nil, fmt.Errorf("%w: catalog needs at least one tool", contractx.ErrValidation)
	}
	return c, nil
}

// Default is a catalog holding only the calculator.
func Default() *Catalog {
	c, err := NewCatalog(Calculator{})
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Primary() contractx.Tool {
	return c.tools[c.order[0]]
}

func (c *Catalog) Lookup(name string) (contractx.Tool, bool) {
	t, ok := c.tools[strings.TrimSpace(name)]
	return t, ok
}

// Execute invokes the named tool and returns the record to append to history.
// An empty name selects the primary tool. Failures are captured in the record.
func (c *Catalog) Execute(ctx context.Context, name string, input string) contractx.ToolInvocationRecord {
	if strings.TrimSpace(name) == "" {
		name = c.order[0]
	}
	t, ok := c.Lookup(name)
	if !ok {
		return contractx.ToolInvocationRecord{
			ToolName: name,
			Input:    input,
			Outcome:  contractx.Failure(fmt.Sprintf("tool=%s is unavailable", name)),
		}
	}

	value, err := t.Invoke(ctx, input)
	if err != nil {
		log.Debug().Str("tool", t.Name()).Str("input", input).Err(err).Msg("tool invocation failed")
		return contractx.ToolInvocationRecord{
			ToolName: t.Name(),
			Input:    input,
			Outcome:  contractx.Failure(err.Error()),
		}
	}
	return contractx.ToolInvocationRecord{
		ToolName: t.Name(),
		Input:    input,
		Outcome:  contractx.Success(value),
	}
}

// Infos describes every tool for prompts, in registration order.
func (c *Catalog) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(c.order))
	for _, name := range c.order {
		info, err := AsInvokable(c.tools[name]).Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Describe renders tool names and descriptions for inclusion in a prompt.
func (c *Catalog) Describe(ctx context.Context) (string, error) {
	infos, err := c.Infos(ctx)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(infos))
	for _, info := range infos {
		lines = append(lines, fmt.Sprintf("- %s: %s", info.Name, info.Desc))
	}
	return strings.Join(lines, "\n"), nil
}

type EvaluateInput struct {
	Expression string `json:"expression"`
}

type EvaluateOutput struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

// AsInvokable exposes a Tool through the eino tool interface.
func AsInvokable(t contractx.Tool) einotool.InvokableTool {
	return &invokableTool{tool: t}
}

type invokableTool struct {
	tool contractx.Tool
}

func (i *invokableTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: i.tool.Name(),
		Desc: i.tool.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"expression": {Type: schema.String, Desc: "Expression to evaluate", Required: true},
		}),
	}, nil
}

func (i *invokableTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var in EvaluateInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrValidation, i.tool.Name(), err)
	}
	if strings.TrimSpace(in.Expression) == "" {
		return "", errors.New("expression is required")
	}

	value, err := i.tool.Invoke(ctx, in.Expression)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(EvaluateOutput{Expression: in.Expression, Result: value})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
