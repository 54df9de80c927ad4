package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/TechXTT/dbsession"
)

// paramFlags collects --param and --null values in the order given.
type paramFlags struct {
	pairs []string
	nulls []string
}

func (p *paramFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&p.pairs, "param", "p", nil, "parameter as Name=value (repeatable)")
	fs.StringArrayVar(&p.nulls, "null", nil, "parameter bound to NULL (repeatable)")
}

// params returns the parameters as text values, followed by the NULL ones.
func (p *paramFlags) params() ([]dbsession.Param, error) {
	out := make([]dbsession.Param, 0, len(p.pairs)+len(p.nulls))
	for _, kv := range p.pairs {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q: want Name=value", kv)
		}
		out = append(out, dbsession.Named(name, value))
	}
	for _, name := range p.nulls {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		if name == "" {
			return nil, fmt.Errorf("invalid --null: empty name")
		}
		out = append(out, dbsession.Named(name, nil))
	}
	return out, nil
}
