package model

import "strings"

// ImageRecord is a single <img> occurrence found while crawling.
type ImageRecord struct {
	// URL is the absolute image URL resolved against the page base.
	URL string `json:"url"`

	// PageURL is the URL of the page the image was found on.
	PageURL string `json:"pageUrl"`

	// Alt is the raw alt attribute value. Empty when the attribute is absent.
	Alt string `json:"alt,omitempty"`

	// HasAlt reports whether the image carries a meaningful alt text.
	HasAlt bool `json:"hasAlt"`
}

// NewImageRecord classifies an image by its alt attribute.
// present tells whether the alt attribute exists on the element at all;
// an attribute that is present but blank after trimming does not count.
func NewImageRecord(imageURL, pageURL, alt string, present bool) ImageRecord {
	return ImageRecord{
		URL:     imageURL,
		PageURL: pageURL,
		Alt:     alt,
		HasAlt:  HasMeaningfulAlt(alt, present),
	}
}

// HasMeaningfulAlt reports whether an alt attribute exists and its trimmed
// value is non-empty.
func HasMeaningfulAlt(alt string, present bool) bool {
	return present && strings.TrimSpace(alt) != ""
}
