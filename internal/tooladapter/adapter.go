package tooladapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"umlsd/internal/outcome"
	"umlsd/internal/query"
)

// Adapter dispatches tool calls to the query façade and formats results
// as agent-readable text.
type Adapter struct {
	svc   *query.Service
	tools map[string]*Tool
	log   *logrus.Logger
}

// New builds an Adapter over the façade.
func New(svc *query.Service, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	tools := make(map[string]*Tool)
	for _, t := range Tools() {
		tools[t.Name] = t
	}
	return &Adapter{svc: svc, tools: tools, log: log}
}

// List returns the tool set in a stable order.
func (a *Adapter) List() []*Tool {
	return Tools()
}

// Typed argument bags for the closed tool set.
type searchTermsArgs struct {
	Search   string `json:"search"`
	Ontology string `json:"ontology"`
}

type searchCUIArgs struct {
	Query string `json:"query"`
}

type cuiArgs struct {
	CUI string `json:"cui"`
}

type pairArgs struct {
	CUI1 string `json:"cui1"`
	CUI2 string `json:"cui2"`
}

// Call validates the argument bag against the tool's schema, invokes the
// façade operation, and renders the text result. Unknown tool names and
// schema violations are InvalidArgument outcomes.
func (a *Adapter) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	const op = "tooladapter.Call"

	tool, ok := a.tools[name]
	if !ok {
		return "", outcome.Errorf(outcome.InvalidArgument, op, "unknown tool %q", name)
	}
	if err := tool.Validate(args); err != nil {
		return "", outcome.E(outcome.InvalidArgument, op, err)
	}

	a.log.WithFields(logrus.Fields{"tool": name}).Info("tool call")

	switch name {
	case ToolSearchTerms:
		var in searchTermsArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.searchTerms(ctx, in)
	case ToolSearchCUI:
		var in searchCUIArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.searchCUI(ctx, in)
	case ToolCUIInfo:
		var in cuiArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.cuiInfo(ctx, in)
	case ToolAncestors:
		var in cuiArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.ancestors(ctx, in)
	case ToolDepth:
		var in cuiArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.depth(ctx, in)
	case ToolLCA:
		var in pairArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.lca(ctx, in)
	case ToolWuPalmer:
		var in pairArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.wuPalmer(ctx, in)
	case ToolHPOTerm:
		var in cuiArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return "", outcome.E(outcome.InvalidArgument, op, err)
		}
		return a.hpoTerm(ctx, in)
	default:
		return "", outcome.Errorf(outcome.InvalidArgument, op, "unknown tool %q", name)
	}
}

func (a *Adapter) searchTerms(ctx context.Context, in searchTermsArgs) (string, error) {
	ontology := in.Ontology
	if ontology == "" {
		ontology = "HPO"
	}
	results, err := a.svc.SearchTerms(ctx, in.Search, ontology, 0)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d medical terms for '%s' in %s ontology:\n\n", len(results), in.Search, ontology)
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		description := r.Description
		if description == "" {
			description = "N/A"
		}
		fmt.Fprintf(&b, "• %s: %s\n  Description: %s", r.Code, r.Term, description)
	}
	return b.String(), nil
}

func (a *Adapter) searchCUI(ctx context.Context, in searchCUIArgs) (string, error) {
	matches, err := a.svc.SearchConcepts(ctx, in.Query, 50)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d CUIs for '%s':\n\n", len(matches), in.Query)
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s: %s", m.CUI, m.Name)
	}
	return b.String(), nil
}

func (a *Adapter) cuiInfo(ctx context.Context, in cuiArgs) (string, error) {
	concept, err := a.svc.GetConcept(ctx, in.CUI)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CUI Information:\n• CUI: %s\n• Name: %s", concept.CUI, concept.Name)
	if concept.Definition != "" {
		fmt.Fprintf(&b, "\n• Definition: %s", concept.Definition)
	}
	return b.String(), nil
}

func (a *Adapter) ancestors(ctx context.Context, in cuiArgs) (string, error) {
	ancestors, err := a.svc.Ancestors(ctx, in.CUI, "")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d ancestors for CUI %s:\n\n", len(ancestors), in.CUI)
	for i, ancestor := range ancestors {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s", ancestor)
	}
	return b.String(), nil
}

func (a *Adapter) depth(ctx context.Context, in cuiArgs) (string, error) {
	depth, err := a.svc.Depth(ctx, in.CUI, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CUI %s has depth %d in the hierarchy", in.CUI, depth), nil
}

func (a *Adapter) lca(ctx context.Context, in pairArgs) (string, error) {
	lca, err := a.svc.LCA(ctx, in.CUI1, in.CUI2, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Lowest Common Ancestor Analysis:\n"+
		"• CUI 1: %s\n"+
		"• CUI 2: %s\n"+
		"• LCA: %s\n"+
		"• LCA Depth: %d", in.CUI1, in.CUI2, lca.CUI, lca.Depth), nil
}

func (a *Adapter) wuPalmer(ctx context.Context, in pairArgs) (string, error) {
	sim, err := a.svc.WuPalmer(ctx, in.CUI1, in.CUI2, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Wu-Palmer Similarity Analysis:\n"+
		"• CUI 1: %s (depth: %d)\n"+
		"• CUI 2: %s (depth: %d)\n"+
		"• Lowest Common Ancestor: %s (depth: %d)\n"+
		"• Similarity Score: %.4f",
		sim.A, sim.DepthA, sim.B, sim.DepthB, sim.LCA, sim.DepthL, sim.Score), nil
}

func (a *Adapter) hpoTerm(ctx context.Context, in cuiArgs) (string, error) {
	mapping, err := a.svc.CodeForCUI(ctx, in.CUI, "HPO")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("HPO Information for CUI %s:\n"+
		"• HPO Code: %s\n"+
		"• HPO Term: %s", in.CUI, mapping.Code, mapping.Name), nil
}
