package model

// TownID uniquely identifies a town within the process
type TownID string

// TownListing describes a publicly listed town
type TownListing struct {
	ID               TownID
	FriendlyName     string
	CurrentOccupancy int
	MaximumOccupancy int
}
