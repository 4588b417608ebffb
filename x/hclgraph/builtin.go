package hclgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"
)

// RegisterBuiltins installs the small built-in handler set every hclgraph
// Registry is expected to carry: http.get, http.post, sleep, and const.
// Grounded on the teacher's own core handler set (internal/handlers plus
// the modules/* built-ins registered at startup in internal/app/app.go).
func RegisterBuiltins(r *Registry) {
	client := resty.New()
	r.Register("http.get", &httpGetHandler{client: client})
	r.Register("http.post", &httpPostHandler{client: client})
	r.Register("sleep", &sleepHandler{})
	r.Register("const", &constHandler{})
}

type httpGetInput struct {
	URL string `hcl:"url"`
}

type httpGetHandler struct {
	client *resty.Client
}

func (h *httpGetHandler) NewInput() any { return &httpGetInput{} }

func (h *httpGetHandler) Run(ctx context.Context, _ *hcl.EvalContext, input any) (cty.Value, error) {
	in := input.(*httpGetInput)
	resp, err := h.client.R().SetContext(ctx).Get(in.URL)
	if err != nil {
		return cty.NilVal, fmt.Errorf("http.get %s: %w", in.URL, err)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode())),
		"body":        cty.StringVal(resp.String()),
	}), nil
}

type httpPostInput struct {
	URL  string `hcl:"url"`
	Body string `hcl:"body,optional"`
}

type httpPostHandler struct {
	client *resty.Client
}

func (h *httpPostHandler) NewInput() any { return &httpPostInput{} }

func (h *httpPostHandler) Run(ctx context.Context, _ *hcl.EvalContext, input any) (cty.Value, error) {
	in := input.(*httpPostInput)
	resp, err := h.client.R().SetContext(ctx).SetBody(in.Body).Post(in.URL)
	if err != nil {
		return cty.NilVal, fmt.Errorf("http.post %s: %w", in.URL, err)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode())),
		"body":        cty.StringVal(resp.String()),
	}), nil
}

type sleepInput struct {
	Duration string `hcl:"duration"`
}

// sleepHandler blocks for a configured duration, used by the
// cancellation-under-load scenario's HCL-driven variant — a grid can
// declare thousands of `sleep` steps and cancel the Executor mid-run.
type sleepHandler struct{}

func (h *sleepHandler) NewInput() any { return &sleepInput{} }

func (h *sleepHandler) Run(ctx context.Context, _ *hcl.EvalContext, input any) (cty.Value, error) {
	in := input.(*sleepInput)
	d, err := time.ParseDuration(in.Duration)
	if err != nil {
		return cty.NilVal, fmt.Errorf("sleep: invalid duration %q: %w", in.Duration, err)
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
		return cty.NilVal, ctx.Err()
	}
	return cty.True, nil
}

// constInput carries its `value` attribute as a raw, unevaluated
// expression rather than a typed field: the literal can be any HCL value
// shape (string, number, object), and constHandler evaluates it itself
// against the step's EvalContext so it can also reference earlier steps'
// outputs, same as any other attribute would.
type constInput struct {
	Value hcl.Expression `hcl:"value"`
}

// constHandler publishes a fixed literal value, used for graph roots that
// need no external side effect.
type constHandler struct{}

func (h *constHandler) NewInput() any { return &constInput{} }

func (h *constHandler) Run(_ context.Context, evalCtx *hcl.EvalContext, input any) (cty.Value, error) {
	in := input.(*constInput)
	v, diags := in.Value.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("const: evaluating value: %w", diags)
	}
	return v, nil
}
