package confirm

import "regexp"

// crawlerPattern matches user agents of automated link-preview crawlers.
// Chat clients unfurl pasted URLs immediately; letting a crawler visit the
// confirmation link would burn the nonce before the human can.
var crawlerPattern = regexp.MustCompile(`(?i)(slackbot|discordbot|telegrambot|twitterbot|facebookexternalhit|linkedinbot|whatsapp|skypeuripreview|linkexpanding|crawler|spider)`)

// isCrawler reports whether the user agent self-identifies as a crawler.
func isCrawler(userAgent string) bool {
	return crawlerPattern.MatchString(userAgent)
}
