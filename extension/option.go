package extension

type Option func(*Types)

func WithImports(imports Imports) Option {
	return func(t *Types) {
		t.imports = imports
	}
}
