// internal/webapp/summary.go
package webapp

import (
	"encoding/json"

	jmes "github.com/jmespath/go-jmespath"
)

// Summarize applies the operation's JMESPath expression to the raw provider
// response, giving each route a short display value without bespoke structs
// per resource. Nil when the operation declares no summary path.
func Summarize(op Operation, raw json.RawMessage) (any, error) {
	if op.SummaryPath == "" {
		return nil, nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return jmes.Search(op.SummaryPath, doc)
}
