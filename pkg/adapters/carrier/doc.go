/*
Package carrier adapts a remote carrier's HTTP/JSON API to ports.Provider.

Endpoints, relative to the configured base URL:

	POST /eligibility            {"product": ..., "consumer": ...}
	POST /quotes                 {"product_id": ..., "consumer": ..., "request": ...}
	POST /enrollments            {"quote": ..., "consumer": ..., "data": ...}
	GET  /enrollments/{id}

Requests carry "Authorization: Bearer <api key>" when a key is configured.
Transport failures, 429 and 5xx answers are reported as retryable provider errors;
the provider itself never retries.
*/
package carrier
