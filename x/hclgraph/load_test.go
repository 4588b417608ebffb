package hclgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgrid/executor"
	"github.com/vk/taskgrid/task"
)

func writeGrid(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.tg.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFile_ConstChainWiresDependencies(t *testing.T) {
	path := writeGrid(t, `
step "root" {
  uses  = "const"
  value = 10
}

step "echoed" {
  uses       = "const"
  depends_on = ["root"]
  value      = step.root
}
`)

	registry := NewRegistry()
	RegisterBuiltins(registry)

	handles, err := LoadFile(context.Background(), path, registry)
	require.NoError(t, err)
	require.Len(t, handles, 2)

	e := executor.New()
	for _, h := range handles {
		e.Add(h)
	}
	e.Run()
	e.Wait()
	defer e.Close()

	var echoed *step
	for _, h := range handles {
		if s := h.(*step); s.Name() == "echoed" {
			echoed = s
		}
	}
	require.NotNil(t, echoed)
	require.Equal(t, task.Complete, echoed.State())

	f, _ := echoed.Result().AsBigFloat().Float64()
	assert.Equal(t, float64(10), f)
}

func TestLoadFile_UnregisteredHandlerIsRejectedAtLoadTime(t *testing.T) {
	path := writeGrid(t, `
step "root" {
  uses = "nonexistent.handler"
}
`)

	registry := NewRegistry()
	RegisterBuiltins(registry)

	_, err := LoadFile(context.Background(), path, registry)
	assert.Error(t, err)
}

func TestLoadFile_UndeclaredDependencyIsRejectedAtLoadTime(t *testing.T) {
	path := writeGrid(t, `
step "leaf" {
  uses       = "const"
  depends_on = ["missing"]
  value      = 1
}
`)

	registry := NewRegistry()
	RegisterBuiltins(registry)

	_, err := LoadFile(context.Background(), path, registry)
	assert.Error(t, err)
}

func TestLoadFile_DuplicateStepNameIsRejected(t *testing.T) {
	path := writeGrid(t, `
step "dup" {
  uses  = "const"
  value = 1
}

step "dup" {
  uses  = "const"
  value = 2
}
`)

	registry := NewRegistry()
	RegisterBuiltins(registry)

	_, err := LoadFile(context.Background(), path, registry)
	assert.Error(t, err)
}

func TestLoadFile_SleepStepCompletes(t *testing.T) {
	path := writeGrid(t, `
step "pause" {
  uses     = "sleep"
  duration = "1ms"
}
`)

	registry := NewRegistry()
	RegisterBuiltins(registry)

	handles, err := LoadFile(context.Background(), path, registry)
	require.NoError(t, err)

	e := executor.New()
	for _, h := range handles {
		e.Add(h)
	}
	e.Run()
	e.Wait()
	defer e.Close()

	s := handles[0].(*step)
	require.NoError(t, s.Err())
	assert.Equal(t, cty.True, s.Result())
}

func TestConstHandler_EvaluatesDependencyReference(t *testing.T) {
	h := &constHandler{}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"step": cty.ObjectVal(map[string]cty.Value{"a": cty.NumberIntVal(7)}),
		},
	}

	expr, diags := hclsyntax.ParseExpression([]byte("step.a"), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors())

	v, err := h.Run(context.Background(), evalCtx, &constInput{Value: expr})
	require.NoError(t, err)
	f, _ := v.AsBigFloat().Float64()
	assert.Equal(t, float64(7), f)
}
