package junctionsim

type HighwayType uint16

const (
	HIGHWAY_MOTORWAY = HighwayType(iota + 1)
	HIGHWAY_MOTORWAY_LINK
	HIGHWAY_TRUNK
	HIGHWAY_TRUNK_LINK
	HIGHWAY_PRIMARY
	HIGHWAY_PRIMARY_LINK
	HIGHWAY_SECONDARY
	HIGHWAY_SECONDARY_LINK
	HIGHWAY_TERTIARY
	HIGHWAY_TERTIARY_LINK
	HIGHWAY_RESIDENTIAL
	HIGHWAY_LIVING_STREET
	HIGHWAY_SERVICE
	HIGHWAY_UNCLASSIFIED
)

func (iotaIdx HighwayType) String() string {
	return [...]string{"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "living_street", "service", "unclassified"}[iotaIdx-1]
}

// getHighwayType returns zero for ways vehicles can't approach a junction by
func getHighwayType(str string) HighwayType {
	if found, ok := highwaysTypes[str]; ok {
		return found
	}
	return 0
}

var (
	highwaysTypes = map[string]HighwayType{
		"motorway":       HIGHWAY_MOTORWAY,
		"motorway_link":  HIGHWAY_MOTORWAY_LINK,
		"trunk":          HIGHWAY_TRUNK,
		"trunk_link":     HIGHWAY_TRUNK_LINK,
		"primary":        HIGHWAY_PRIMARY,
		"primary_link":   HIGHWAY_PRIMARY_LINK,
		"secondary":      HIGHWAY_SECONDARY,
		"secondary_link": HIGHWAY_SECONDARY_LINK,
		"tertiary":       HIGHWAY_TERTIARY,
		"tertiary_link":  HIGHWAY_TERTIARY_LINK,
		"residential":    HIGHWAY_RESIDENTIAL,
		"living_street":  HIGHWAY_LIVING_STREET,
		"service":        HIGHWAY_SERVICE,
		"unclassified":   HIGHWAY_UNCLASSIFIED,
	}

	// Lanes of both directions together
	defaultLanesByHighway = map[HighwayType]int{
		HIGHWAY_MOTORWAY:       4,
		HIGHWAY_MOTORWAY_LINK:  1,
		HIGHWAY_TRUNK:          3,
		HIGHWAY_TRUNK_LINK:     1,
		HIGHWAY_PRIMARY:        3,
		HIGHWAY_PRIMARY_LINK:   1,
		HIGHWAY_SECONDARY:      2,
		HIGHWAY_SECONDARY_LINK: 1,
		HIGHWAY_TERTIARY:       2,
		HIGHWAY_TERTIARY_LINK:  1,
		HIGHWAY_RESIDENTIAL:    1,
		HIGHWAY_LIVING_STREET:  1,
		HIGHWAY_SERVICE:        1,
		HIGHWAY_UNCLASSIFIED:   1,
	}

	junctionTypes = map[string]struct{}{
		"circular":   {},
		"roundabout": {},
	}

	// See ref.: https://wiki.openstreetmap.org/wiki/Tag:oneway%3Dreversible
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}
)

// defaultApproachLanes returns lanes per direction of travel for a way without lane tags
func defaultApproachLanes(highwayType HighwayType, oneway bool) int {
	lanes, ok := defaultLanesByHighway[highwayType]
	if !ok {
		lanes = 1
	}
	if oneway {
		return lanes
	}
	if lanes/2 < 1 {
		return 1
	}
	return lanes / 2
}
