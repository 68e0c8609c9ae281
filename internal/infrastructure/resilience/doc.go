/*
Package resilience provides a circuit breaker for outbound calls.

The fetch client wraps every page request in a Breaker so a host that keeps
failing is short-circuited instead of tying up a tab in a loading state.
An open breaker fails fast with ErrCircuitOpen; it never retries.

# Usage

	breaker := resilience.New("fetch", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	resp, err := resilience.Execute(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open

Errors the IsFailure hook rejects (context cancellation by default) are
passed through without counting against the breaker.
*/
package resilience
