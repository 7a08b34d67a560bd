package runtime

import (
	"context"

	"github.com/risor-io/risor/object"
	"github.com/tliron/commonlog"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/parser"
	"github.com/jward/cppdomain/internal/symbol"
)

// makeParseSignatureFn creates the "parse_signature" host function.
//
// parse_signature(kind, signature) → map
//
// kind is a declaration directive kind ("function", "struct", ...). The
// map holds the qualified name, the display string, the object type and
// the ids of every version the declaration can be encoded in, newest
// first. Parse errors are returned as Risor errors.
func makeParseSignatureFn() *object.Builtin {
	return object.NewBuiltin("parse_signature", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("parse_signature", 2, len(args))
		}
		kindStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("parse_signature: kind must be a string, got %s", args[0].Type())
		}
		sigStr, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("parse_signature: signature must be a string, got %s", args[1].Type())
		}

		info, err := parseSignature(kindStr.Value(), sigStr.Value())
		if err != nil {
			return object.Errorf("parse_signature: %v", err)
		}
		ids := make([]object.Object, len(info.ids))
		for i, id := range info.ids {
			ids[i] = object.NewString(id)
		}
		return object.NewMap(map[string]object.Object{
			"name":        object.NewString(info.name),
			"display":     object.NewString(info.display),
			"object_type": object.NewString(info.objectType),
			"ids":         object.NewList(ids),
		})
	})
}

type signatureInfo struct {
	name       string
	display    string
	objectType string
	ids        []string
}

func parseSignature(kind, sig string) (*signatureInfo, error) {
	sym, err := symbol.ParseStandalone(kind, sig, parser.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &signatureInfo{
		name:       sym.QualifiedName(),
		display:    ast.DisplayString(sym.Declaration),
		objectType: sym.Declaration.ObjectType,
		ids:        sym.Declaration.IDs(),
	}, nil
}

// makeLogFn creates the "log" host function.
//
// log(level, message)
//
// level is "debug", "info", "warning" or "error".
func makeLogFn(l commonlog.Logger) *object.Builtin {
	return object.NewBuiltin("log", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("log", 2, len(args))
		}
		level, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("log: level must be a string, got %s", args[0].Type())
		}
		msg := args[1].Inspect()
		if s, ok := args[1].(*object.String); ok {
			msg = s.Value()
		}
		switch level.Value() {
		case "debug":
			l.Debug(msg)
		case "info":
			l.Info(msg)
		case "warning", "warn":
			l.Warning(msg)
		case "error":
			l.Error(msg)
		default:
			return object.Errorf("log: unknown level %q", level.Value())
		}
		return object.Nil
	})
}
