package agent

import (
	"context"
	"fmt"

	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/renderer"
	"github.com/kasaledger/kasa/session"
	"github.com/kasaledger/kasa/store"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skills from the Tools and ask them questions.
			They are at your service and 100% dedicated to you; they keep context of your previous questions.

			The user is here to understand his personal spending, income and budgets.
			Devise a plan of questions to ask each expert and come up with the best response to the user's request.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewBookkeeper creates the expert in charge of the user's ledger, wired to
// the live session.
func NewBookkeeper(s *session.Session) *Expert {
	lib := []Function{listEntries(s), monthSummary(s)}

	return &Expert{
		Name: "Bookkeeper",
		Description: `This is the Bookkeeper. He is in charge of reading the user's ledger.
		He can list entries and compute monthly summaries of spending and income.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a bookkeeper in charge of the user's personal finance ledger.
				You know how to use the Tools to extract information about the user's
				entries, spending by category and monthly totals. Other experts might
				ask approximative questions; figure out what they meant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a Function from a declaration and a closure.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func errorResponse(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:   id,
		Name: name,
		Response: map[string]any{
			"error": err.Error(),
		},
	}
}

func outputResponse(id, name, output string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:   id,
		Name: name,
		Response: map[string]any{
			"output": output,
		},
	}
}

var dateSchema = &genai.Schema{
	Type:        genai.TypeString,
	Description: "A date in YYYY-MM-DD format. Today is the default.",
}

// listEntries exposes a filtered listing of the ledger.
func listEntries(s *session.Session) Function {
	const name = "ListEntries"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: name,
			Description: `ListEntries lists the ledger entries, optionally filtered by category,
			account and date range.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category": {Type: genai.TypeString, Description: "Only entries of this category."},
					"account":  {Type: genai.TypeString, Description: "Only entries touching this account."},
					"from":     dateSchema,
					"to":       dateSchema,
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table of the matching entries.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			var f store.Filter
			f.Category, _ = args["category"].(string)
			f.Account, _ = args["account"].(string)
			var err error
			if f.From, err = optionalDate(args, "from", kasa.Date{}); err != nil {
				return errorResponse(id, name, err)
			}
			if f.To, err = optionalDate(args, "to", kasa.Date{}); err != nil {
				return errorResponse(id, name, err)
			}
			entries, err := s.Entries(ctx, f)
			if err != nil {
				return errorResponse(id, name, err)
			}
			return outputResponse(id, name, renderer.RenderEntries(entries))
		},
	}
}

// monthSummary exposes the monthly aggregation.
func monthSummary(s *session.Session) Function {
	const name = "MonthSummary"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: name,
			Description: `MonthSummary computes the income, spending and net of one month,
			with spending broken down by category.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date":     {Type: genai.TypeString, Description: "Any date inside the month to summarize, YYYY-MM-DD. Today is the default."},
					"currency": {Type: genai.TypeString, Description: "The reporting currency, e.g. EUR."},
				},
				Required: []string{"currency"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown summary of the month.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			on, err := optionalDate(args, "date", kasa.Today())
			if err != nil {
				return errorResponse(id, name, err)
			}
			currency, _ := args["currency"].(string)
			sum, err := s.Summary(ctx, on, currency)
			if err != nil {
				return errorResponse(id, name, err)
			}
			return outputResponse(id, name, renderer.RenderSummary(&sum))
		},
	}
}

func optionalDate(args map[string]any, key string, fallback kasa.Date) (kasa.Date, error) {
	raw, ok := args[key]
	if !ok {
		return fallback, nil
	}
	str, ok := raw.(string)
	if !ok {
		return fallback, fmt.Errorf("argument %q is not a string as expected but %T", key, raw)
	}
	if str == "" {
		return fallback, nil
	}
	d, err := kasa.ParseDate(str)
	if err != nil {
		return fallback, fmt.Errorf("argument %q must be a valid YYYY-MM-DD date, got %q", key, str)
	}
	return d, nil
}
