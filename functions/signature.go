//nolint:govet
package functions

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer/stateful"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Signature is a function name with argument types as written by a user, e.g. "sum(BIGINT)"
type Signature struct {
	Name     string
	ArgTypes []common.Type
}

type signatureAST struct {
	Name string   `parser:"@Ident"`
	Args []string `parser:"'(' (@Ident (',' @Ident)*)? ')'"`
}

var (
	signatureLexer = stateful.MustSimple([]stateful.Rule{
		{Name: `Ident`, Pattern: `[a-zA-Z_][a-zA-Z_0-9]*`, Action: nil},
		{Name: `Punct`, Pattern: `[(),]`, Action: nil},
		{Name: `Whitespace`, Pattern: `\s+`, Action: nil},
	})
	signatureParser = participle.MustBuild(&signatureAST{},
		participle.Lexer(signatureLexer),
		participle.Elide("Whitespace"),
	)
)

func ParseSignature(s string) (*Signature, error) {
	ast := &signatureAST{}
	if err := signatureParser.ParseString("", s, ast); err != nil {
		return nil, errors.NewInvalidConfigurationError("invalid function signature: " + err.Error())
	}
	sig := &Signature{Name: ast.Name, ArgTypes: make([]common.Type, len(ast.Args))}
	for i, arg := range ast.Args {
		if err := sig.ArgTypes[i].Capture([]string{arg}); err != nil {
			return nil, errors.NewInvalidConfigurationError("invalid function signature: " + err.Error())
		}
	}
	return sig, nil
}
