package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textSpec(t *testing.T, inputs, outputs []Handle, params []ParameterSpec) NodeSpec {
	t.Helper()
	spec, err := NewNodeSpec("test", "", inputs, outputs, params, false, "", nil)
	require.NoError(t, err)
	return spec
}

func TestNewNodeSpecRejectsDuplicateHandleNames(t *testing.T) {
	_, err := NewNodeSpec("dup", "", []Handle{{Name: "a"}, {Name: "a"}}, nil, nil, false, "", nil)
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
}

func TestExtractInputsMissingRequired(t *testing.T) {
	spec := textSpec(t, []Handle{{Name: "msg", Required: true}}, nil, nil)
	_, err := ExtractInputs(spec, NewData())
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindMissingInput, fe.Kind)
}

func TestExtractInputsDefaultsWhenAbsent(t *testing.T) {
	spec := textSpec(t, []Handle{{Name: "msg", Default: "hi"}}, nil, nil)
	got, err := ExtractInputs(spec, NewData())
	require.NoError(t, err)
	assert.Equal(t, "hi", got["msg"])
}

func TestPackageOutputsSingleWrapsNonMapResult(t *testing.T) {
	spec := textSpec(t, nil, []Handle{{Name: "out"}}, nil)
	got, err := PackageOutputs(spec, "hello")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"out": "hello"}, got)
}

func TestPackageOutputsSingleMapMustCarryDeclaredKey(t *testing.T) {
	spec := textSpec(t, nil, []Handle{{Name: "out"}}, nil)
	_, err := PackageOutputs(spec, map[string]any{"wrong": 1})
	require.Error(t, err)
}

func TestPackageOutputsMultiRequiresExactKeys(t *testing.T) {
	spec := textSpec(t, nil, []Handle{{Name: "a"}, {Name: "b"}}, nil)

	_, err := PackageOutputs(spec, map[string]any{"a": 1})
	require.Error(t, err, "missing declared output should fail")

	_, err = PackageOutputs(spec, map[string]any{"a": 1, "b": 2, "c": 3})
	require.Error(t, err, "undeclared output key should fail")

	got, err := PackageOutputs(spec, map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got)
}

func TestDataCloneIsIndependent(t *testing.T) {
	d := NewData()
	d.Inputs["x"] = 1
	clone := d.Clone()
	clone.Inputs["x"] = 2
	assert.Equal(t, 1, d.Inputs["x"])
	assert.Equal(t, 2, clone.Inputs["x"])
}

type echoNode struct{ spec NodeSpec }

func (n echoNode) Spec() NodeSpec { return n.spec }
func (n echoNode) Process(_ context.Context, inputs, _ map[string]any) (any, error) {
	return inputs["in"], nil
}

func TestStripHandleIndexSuffix(t *testing.T) {
	assert.Equal(t, "value", StripHandleIndexSuffix("value-index2"))
	assert.Equal(t, "value-indexbad", StripHandleIndexSuffix("value-indexbad"))
	assert.Equal(t, "plain", StripHandleIndexSuffix("plain"))
}
