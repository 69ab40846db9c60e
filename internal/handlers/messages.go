package handlers

// Reply texts
const (
	MsgWelcome         = "👋 Welcome to Moodgram, <b>%s</b>! Your account is public. Use /private to require approval for new followers."
	MsgWelcomeBack     = "👋 Welcome back, <b>%s</b>!"
	MsgHelp            = "Commands:\n/follow @user\n/unfollow @user\n/block @user\n/unblock @user\n/requests - pending follow requests\n/me - your profile\n/private, /public - account privacy"
	MsgNotRegistered   = "⚠️ You are not registered yet. Send /start first."
	MsgUsage           = "✍️ Usage: /%s @username"
	MsgUserNotFound    = "❌ No user named @%s."
	MsgSelfAction      = "🙃 You cannot do that to yourself."
	MsgBusy            = "⏳ Too many changes at once, please try again."
	MsgFailed          = "❌ Something went wrong, please try again later."
	MsgNoRequests      = "📭 No pending follow requests."
	MsgRequestFrom     = "👋 <b>%s</b> (@%s) wants to follow you."
	MsgRequestSent     = "📨 Follow request sent to @%s."
	MsgFollowing       = "✅ You now follow @%s."
	MsgAlreadyDone     = "ℹ️ Nothing changed, your relationship with @%s is <b>%s</b>."
	MsgUnfollowed      = "👋 You no longer follow @%s."
	MsgBlocked         = "🚫 @%s is blocked."
	MsgUnblocked       = "✅ @%s is unblocked."
	MsgApproved        = "✅ @%s can now follow you."
	MsgIgnored         = "🙈 Request from @%s ignored."
	MsgRequestApproved = "🎉 @%s accepted your follow request."
	MsgRequestGone     = "ℹ️ This request is no longer pending."
	MsgPrivacyPublic   = "🌍 Your account is now public. New followers no longer need approval."
	MsgPrivacyPrivate  = "🔒 Your account is now private. New followers need your approval."
	MsgProfile         = "👤 <b>%s</b> (@%s)\n%s\n\nFollowers: %d\nFollowing: %d\nPending requests: %d\nSent requests: %d\nBlocked: %d"
)
