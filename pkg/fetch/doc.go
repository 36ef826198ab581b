// Package fetch provides a fetch-state controller: a per-resource owner of
// {data, error, loading} state with cancellation of superseded requests.
//
// # Basic Usage
//
//	ctrl := fetch.New[pokeapi.ResourceList](ctx, url, fetch.RequestOptions{}, fetch.DefaultConfig())
//	defer ctrl.Close()
//
//	state, err := ctrl.Wait(ctx)
//	switch {
//	case err != nil:
//		// context done or controller closed
//	case state.IsLoading:
//		// render loading
//	case state.Err != nil:
//		// render failure
//	case state.Data != nil:
//		// render *state.Data
//	}
//
// # Supersession
//
// Every issued request captures a generation number. Issuing a new request
// cancels the previous request's context and bumps the generation; a
// completion whose generation no longer matches is discarded without touching
// state. The generation check, not the context cancellation, is what guards
// the state: a response that wins the race against the abort is still dropped.
//
// # Refetch
//
// Refetch only clears the "already issued" marker. The next Activate call,
// normally made from the consumer's update loop, issues the request. Reload
// combines both steps for callers that do not run an update loop.
//
// # Errors
//
//   - *HTTPStatusError: a response arrived with a non-2xx status
//   - *TransportError: the request could not complete (dial, timeout, abort)
//   - *DecodeError: a 2xx body was not valid JSON for the target type
//   - *UnknownError: the transport rejected with something that is not an error
//
// No retries are performed. Cancellation due to supersession is never
// reported as an error.
//
// # Metrics
//
//   - pokedex_fetch_requests_total{method, outcome}
//   - pokedex_fetch_request_duration_seconds{method}
//   - pokedex_fetch_errors_total{class}
//   - pokedex_fetch_superseded_total
//   - pokedex_fetch_in_flight
package fetch
