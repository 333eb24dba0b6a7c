package adapter

// API paths, relative to the configured base URL.
const (
	pathLogin         = "/accounts/login/"
	pathTwoFactor     = "/accounts/two_factor_login/"
	pathLogout        = "/accounts/logout/"
	pathCurrentUser   = "/accounts/current_user/"
	pathUserInfo      = "/users/{username}/usernameinfo/"
	pathInbox         = "/direct_v2/inbox/"
	pathThread        = "/direct_v2/threads/{thread_id}/"
	pathBroadcastText = "/direct_v2/threads/broadcast/text/"
)
