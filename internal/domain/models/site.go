package models

// DefaultSiteName is the site name shown in page titles and email.
const DefaultSiteName = "TaskHive"
