// Package http provides the HTTP surface for pannier object storage.
//
// The surface has three layers with different exposure:
//
//   - Built-in HTML pages: landing, login, file manager, logout and a 404
//     page. All assets are embedded, nothing is served from disk.
//   - The authenticated management API: browse the virtual directory tree,
//     upload files and delete objects. Protected by the credential-derived
//     token (cookie or bearer) and per-action rate limits.
//   - Public object fetching: GET on any key streams the object with open
//     CORS so shared links embed anywhere.
//
// Authentication is stateless: the token is a reversible encoding of the
// configured credential pair, validated by recomputing the expectation.
// There are no sessions to store or revoke. See AuthMiddleware and the
// pannier.Gate type.
//
// Rate limiting is best effort and persisted inside the object store
// itself; RateLimitMiddleware wires it per route with an action name.
package http
