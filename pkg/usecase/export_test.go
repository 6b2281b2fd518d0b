package usecase

// FieldErrors is exported for testing
var FieldErrors = fieldErrors

// Announcement is exported for testing
var Announcement = announcement
