package version

// Version is the current wikitools release.
const Version = "0.2.0"
