package proxy

import (
	"fmt"
	"strings"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/globals"
)

// Options are the build-wide synthesis toggles.
type Options struct {
	// Platform selects platform-conditional rule variants. Empty and
	// "neutral" behave as "node".
	Platform string
	// Pure emits a pure-hint before each hoisted member so the
	// minifier can eliminate unused bindings. This is what makes
	// injecting every configured proxy into every matched file safe
	// without call-site analysis.
	Pure bool
	// Bind pre-binds FuncBind members to their namespace.
	Bind bool
}

// DefaultOptions returns the synthesis defaults: pure hints and
// binding enabled, platform unset.
func DefaultOptions() Options {
	return Options{Pure: true, Bind: true}
}

// pureHint is the inline annotation esbuild's minifier recognizes as
// "side-effect free, removable if unused".
const pureHint = "/* @__PURE__ */ "

// Synthesize turns one resolved rule into the import fragment matched
// files prepend and the export fragment served as the proxy module
// body. Identical inputs yield byte-identical fragments.
func Synthesize(name string, r Rule, opts Options) (importsScript, exportsScript string) {
	node, ok := resolveHandle(r.Handle, opts.Platform)
	if !ok || node.Kind == globals.FuncNode {
		return synthVariable(name, r.Code)
	}
	return synthMembers(name, node.Members, r.Code, opts)
}

// resolveHandle reduces a handle rule to the node effective on the
// active platform. ok is false for noop (and for platform diffs that
// resolve to noop): the namespace gets a variable-only proxy.
func resolveHandle(r globals.Rule, platform string) (globals.Node, bool) {
	switch rule := r.(type) {
	case globals.Direct:
		return rule.Node, true
	case globals.PlatformDiff:
		key := platform
		if key == "" || key == "neutral" {
			key = "node"
		}
		diff, ok := rule.Diffs[key]
		if !ok {
			diff, ok = rule.Diffs["node"]
		}
		if !ok {
			return globals.Node{}, false
		}
		if direct, ok := diff.(globals.Direct); ok {
			return direct.Node, true
		}
		return globals.Node{}, false
	default:
		return globals.Node{}, false
	}
}

// synthVariable emits the variable-only proxy: the global is
// re-exported whole under its own name, no member rewriting.
func synthVariable(name, code string) (string, string) {
	imports := fmt.Sprintf("import { %s } from %q;", name, Prefix+name)
	var sb strings.Builder
	writeCode(&sb, code)
	fmt.Fprintf(&sb, "export const %s = %s;\n", name, name)
	return imports, sb.String()
}

// synthMembers emits one hoisted const per member in declaration
// order, then a single export listing them. Property members are
// getter/setter backed and are never hoisted; consuming code keeps
// reaching them through the namespace object, which the namespace
// import still provides.
func synthMembers(name string, members []globals.Member, code string, opts Options) (string, string) {
	imports := fmt.Sprintf("import * as %s from %q;", name, Prefix+name)
	var sb strings.Builder
	writeCode(&sb, code)
	exported := make([]string, 0, len(members))
	for _, member := range members {
		if member.Kind == globals.Property {
			continue
		}
		expr := name + "." + member.Name
		if member.Kind == globals.FuncBind && opts.Bind {
			expr += ".bind(" + name + ")"
		}
		hint := ""
		if opts.Pure {
			hint = pureHint
		}
		fmt.Fprintf(&sb, "const %s = %s%s;\n", member.Name, hint, expr)
		exported = append(exported, member.Name)
	}
	if len(exported) == 0 {
		sb.WriteString("export {};\n")
	} else {
		fmt.Fprintf(&sb, "export { %s };\n", strings.Join(exported, ", "))
	}
	return imports, sb.String()
}

func writeCode(sb *strings.Builder, code string) {
	if code == "" {
		return
	}
	sb.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		sb.WriteByte('\n')
	}
}
