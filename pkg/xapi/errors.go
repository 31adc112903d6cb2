package xapi

import "xtb/pkg/core"

// Classify returns nil for a successful response and a business error otherwise.
func Classify(resp *Response) error {
	if resp.OK() {
		return nil
	}
	return core.NewBusinessError(resp.ErrorCode, resp.Description())
}
