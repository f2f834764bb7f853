package junctionsim

import (
	"regexp"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/sirupsen/logrus"
)

// WayData is an OSM way passing through the junction node
type WayData struct {
	ID      osm.WayID
	TagMap  osm.Tags
	Nodes   []osm.NodeID
	highway HighwayType

	turnLanes         string
	turnLanesForward  string
	turnLanesBackward string
	busLanes          string
	busLanesForward   string
	busLanesBackward  string

	lanesBackward int
	lanesForward  int
	lanes         int

	Oneway     bool
	IsReversed bool
}

var (
	lanesRegExp = regexp.MustCompile(`\d+`)
)

func newWayData(way *osm.Way) *WayData {
	prepared := &WayData{
		ID:            way.ID,
		TagMap:        make(osm.Tags, len(way.Tags)),
		Nodes:         make([]osm.NodeID, 0, len(way.Nodes)),
		highway:       getHighwayType(way.Tags.Find("highway")),
		lanes:         -1,
		lanesForward:  -1,
		lanesBackward: -1,
	}
	copy(prepared.TagMap, way.Tags)
	for _, node := range way.Nodes {
		prepared.Nodes = append(prepared.Nodes, node.ID)
	}
	return prepared
}

// parseLanesTag returns -1 when tag is absent or malformed
func (way *WayData) parseLanesTag(key string, logger logrus.FieldLogger) int {
	value := way.TagMap.Find(key)
	if value == "" {
		return -1
	}
	lanesNum := lanesRegExp.FindString(value)
	if lanesNum == "" {
		logger.WithFields(logrus.Fields{"way": way.ID, "tag": key, "value": value}).Warn("Lanes tag value should be an integer")
		return -1
	}
	lanes, err := strconv.Atoi(lanesNum)
	if err != nil {
		return -1
	}
	return lanes
}

func (way *WayData) processTags(logger logrus.FieldLogger) {
	way.turnLanes = way.TagMap.Find("turn:lanes")
	way.turnLanesForward = way.TagMap.Find("turn:lanes:forward")
	way.turnLanesBackward = way.TagMap.Find("turn:lanes:backward")

	way.busLanes = way.TagMap.Find("bus:lanes")
	if way.busLanes == "" {
		way.busLanes = way.TagMap.Find("psv:lanes")
	}
	way.busLanesForward = way.TagMap.Find("bus:lanes:forward")
	if way.busLanesForward == "" {
		way.busLanesForward = way.TagMap.Find("psv:lanes:forward")
	}
	way.busLanesBackward = way.TagMap.Find("bus:lanes:backward")
	if way.busLanesBackward == "" {
		way.busLanesBackward = way.TagMap.Find("psv:lanes:backward")
	}

	way.lanes = way.parseLanesTag("lanes", logger)
	way.lanesForward = way.parseLanesTag("lanes:forward", logger)
	way.lanesBackward = way.parseLanesTag("lanes:backward", logger)

	onewayText := way.TagMap.Find("oneway")
	switch onewayText {
	case "yes", "1", "true":
		way.Oneway = true
	case "-1":
		way.Oneway = true
		way.IsReversed = true
	case "", "no", "0", "false":
		if _, ok := junctionTypes[way.TagMap.Find("junction")]; ok {
			way.Oneway = true
		}
	default:
		// Reversible or alternating ways depend on time conditions
		if _, found := onewayReversible[onewayText]; !found {
			logger.WithFields(logrus.Fields{"way": way.ID, "value": onewayText}).Warn("Unhandled `oneway` tag value")
		}
	}
}

// allowsForward reports whether traffic may move in order of way's nodes
func (way *WayData) allowsForward() bool {
	return !way.Oneway || !way.IsReversed
}

// allowsBackward reports whether traffic may move against order of way's nodes
func (way *WayData) allowsBackward() bool {
	return !way.Oneway || way.IsReversed
}

// approachTags returns turn and bus lanes tags for traffic moving forward (or backward) along the way
func (way *WayData) approachTags(forward bool) (string, string) {
	if way.Oneway {
		return way.turnLanes, way.busLanes
	}
	if forward {
		return way.turnLanesForward, way.busLanesForward
	}
	return way.turnLanesBackward, way.busLanesBackward
}

// approachLanes returns number of lanes for traffic moving forward (or backward) along the way
func (way *WayData) approachLanes(forward bool) int {
	if way.Oneway {
		if way.lanes > 0 {
			return way.lanes
		}
		return defaultApproachLanes(way.highway, true)
	}
	directed := way.lanesBackward
	if forward {
		directed = way.lanesForward
	}
	if directed > 0 {
		return directed
	}
	if way.lanes > 0 {
		if way.lanes/2 < 1 {
			return 1
		}
		return way.lanes / 2
	}
	return defaultApproachLanes(way.highway, false)
}
