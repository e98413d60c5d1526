package gemini

import "time"

// MaxAttempts is the total attempt budget per generation call, including the
// first attempt. After the last failed attempt the call fails permanently.
const MaxAttempts = 3

// BaseBackoff is the fixed delay inserted before each retry attempt
const BaseBackoff = 1 * time.Second

// MaxJitter is the upper bound of the random delay added to the backoff to
// avoid synchronized retry storms under load
const MaxJitter = 250 * time.Millisecond

// generateRequest is the request body of the generateContent endpoint
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func newGenerateRequest(prompt string) generateRequest {
	return generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
	}
}
