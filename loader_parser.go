package formrules

import (
	"strings"

	internalLoader "github.com/goliatone/go-formrules/internal/loader"
	internalParser "github.com/goliatone/go-formrules/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-formrules/pkg/openapi"
	"github.com/goliatone/go-formrules/pkg/schema"
)

// NewLoader constructs the file, fs.FS and HTTP document loader.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return internalLoader.New(schema.NewLoaderOptions(options...))
}

// NewParser constructs the kin-openapi backed OpenAPI parser.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	return internalParser.New(pkgopenapi.NewParserOptions(options...))
}

// SourceFor maps a command-line argument to a Source: http(s) URLs become
// URL sources, anything else a file path.
func SourceFor(raw string) (schema.Source, error) {
	location := strings.TrimSpace(raw)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return schema.ParseURLSource(location)
	}
	if location == "" {
		return nil, errEmptySource
	}
	return schema.SourceFromFile(location), nil
}
