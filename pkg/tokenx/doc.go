/*
Package tokenx decodes compact JWT payloads on the client side.

The package never verifies signatures. A token is considered valid when it
parses as three dot-separated segments, the payload decodes to JSON, and the
exp claim is strictly in the future. Authenticity is enforced by the remote
API; tokenx only answers "well-formed and unexpired".

	if tokenx.IsValid(token, time.Now()) {
		email, _ := tokenx.Claim(token, tokenx.ClaimEmail)
		// ...
	}
*/
package tokenx
