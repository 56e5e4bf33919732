package enums

import "fmt"

// CampaignChannel is the marketplace surface a promotional price targets.
type CampaignChannel string

const (
	CampaignChannelDefault CampaignChannel = "default"
	CampaignChannelCatalog CampaignChannel = "catalog"
	CampaignChannelBuyBox  CampaignChannel = "buybox"
	CampaignChannelAds     CampaignChannel = "ads"
)

var validCampaignChannels = []CampaignChannel{
	CampaignChannelDefault,
	CampaignChannelCatalog,
	CampaignChannelBuyBox,
	CampaignChannelAds,
}

// String implements fmt.Stringer.
func (c CampaignChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CampaignChannel.
func (c CampaignChannel) IsValid() bool {
	for _, candidate := range validCampaignChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCampaignChannel converts raw input into a CampaignChannel.
func ParseCampaignChannel(value string) (CampaignChannel, error) {
	if value == "" {
		return CampaignChannelDefault, nil
	}
	for _, candidate := range validCampaignChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign channel %q", value)
}
