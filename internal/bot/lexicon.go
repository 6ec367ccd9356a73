package bot

// lexicon centralizes every reply string the bot sends, so wording changes
// (or a future translation) touch one file instead of the command loop.
var lexicon = map[string]string{
	"start": "Hi! I keep track of your friends' birthdays.\n\n" +
		"/add — add a friend\n" +
		"/friends — list your friends\n" +
		"/today — who has a birthday today\n" +
		"/help — all commands\n\n" +
		"Already registered on the website? Open the account page, copy your " +
		"linking code and send me: /start <code>",
	"help": "Commands:\n" +
		"/start <code> — link this chat to your web account\n" +
		"/add — add a friend (I'll ask for the name and birthday)\n" +
		"/friends — list your friends\n" +
		"/today — today's birthdays\n" +
		"/cancel — abort adding a friend",
	"linked":              "Done! This chat is now linked to your web account.",
	"linked_merged":       "Done! This chat is linked and your %d bot-side friend(s) moved to your account (%d duplicate(s) skipped).",
	"already_linked":      "This chat is already linked to that account.",
	"unknown_code":        "I don't recognise that code. Check the account page and try again.",
	"ask_name":            "What's your friend's name?",
	"ask_birthday":        "And the birthday? Format: YYYY-MM-DD, e.g. 1990-05-01",
	"bad_birthday":        "That doesn't look like a date. Please use YYYY-MM-DD, e.g. 1990-05-01.",
	"friend_added":        "Added %s (%s). 🎂",
	"add_cancelled":       "Okay, cancelled.",
	"nothing_to_cancel":   "Nothing to cancel.",
	"no_friends":          "Your list is empty. Use /add to add your first friend.",
	"list_friends":        "Your friends:\n",
	"no_birthdays_today":  "No birthdays today.",
	"birthdays_today":     "Birthdays today! 🎉\n",
	"unknown_command":     "I don't know that command — try /help.",
	"something_went_wrong": "Something went wrong, please try again.",
}
