/*
Package magiclink implements passwordless, email-link login.

The flow is the following:

 1. A user wants to login and submits their email.
 2. Strategy.Issue verifies the email, mints an encrypted token bound to
    the request origin and a fresh nonce, stores the nonce in the
    browser session, and emails a link carrying the token.
 3. The user clicks the link; Strategy.Redeem decodes the token, checks
    the origin and the session nonce, re-verifies the email, and either
    returns the user or stores it in the session and redirects.

The token is self-contained: there is no server-side token table. The
session nonce is the single-use guard — it is overwritten by every new
issuance and cleared on successful redemption, so a token can only be
redeemed once, and only by the browser that requested it.
*/
package magiclink
