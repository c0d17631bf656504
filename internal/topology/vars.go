package topology

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseVars converts name=value assignments into variables for Parse.
// A value is read as an HCL literal expression (number, bool, quoted
// string, list); anything else is taken as a bare string.
func ParseVars(assignments []string) (map[string]cty.Value, error) {
	vars := make(map[string]cty.Value, len(assignments))

	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q: expected name=value", a)
		}
		if !hclsyntax.ValidIdentifier(name) {
			return nil, fmt.Errorf("invalid variable name %q", name)
		}

		vars[name] = literal(raw)
	}

	return vars, nil
}

func literal(raw string) cty.Value {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<var>", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return cty.StringVal(raw)
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() || !val.IsWhollyKnown() {
		return cty.StringVal(raw)
	}
	return val
}
