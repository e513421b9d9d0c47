package generator

import "context"

// ScriptedLLM is a test double that replays a fixed sequence of responses.
// Once the script runs out it keeps returning the last entry. A nil error
// with empty text models a model that returned nothing.
type ScriptedLLM struct {
	Responses []ScriptedResponse
	Calls     []Prompt
	pos       int
}

// ScriptedResponse is one scripted completion outcome.
type ScriptedResponse struct {
	Text string
	Err  error
}

func (s *ScriptedLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	s.Calls = append(s.Calls, prompt)
	if len(s.Responses) == 0 {
		return "", nil
	}
	r := s.Responses[s.pos]
	if s.pos < len(s.Responses)-1 {
		s.pos++
	}
	return r.Text, r.Err
}
