package junctionsim

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

type ControlType uint16

const (
	NOT_SIGNAL = ControlType(iota + 1)
	IS_SIGNAL
)

func (iotaIdx ControlType) String() string {
	return [...]string{"common", "signal"}[iotaIdx-1]
}

const (
	defaultLeftMostLanes  = 1
	defaultRightMostLanes = 1
)

var (
	turnMovements = map[string]MovementType{
		"left":         MOVEMENT_LEFT,
		"slight_left":  MOVEMENT_LEFT,
		"sharp_left":   MOVEMENT_LEFT,
		"through":      MOVEMENT_STRAIGHT,
		"right":        MOVEMENT_RIGHT,
		"slight_right": MOVEMENT_RIGHT,
		"sharp_right":  MOVEMENT_RIGHT,
	}

	// lane type by movements it serves: [left, straight, right]
	laneTypeByMovements = map[[3]bool]LaneType{
		{true, false, false}: LANE_L,
		{false, true, false}: LANE_S,
		{false, false, true}: LANE_R,
		{true, true, false}:  LANE_LS,
		{false, true, true}:  LANE_RS,
		{true, false, true}:  LANE_LR,
		{true, true, true}:   LANE_LRS,
	}
)

// LayoutImporter derives lane layouts of a signalised junction from OSM data
type LayoutImporter struct {
	filename string
	nodeID   osm.NodeID
	logger   logrus.FieldLogger
}

func (importer *LayoutImporter) String() string {
	return fmt.Sprintf(`
Layout importer parameters:
	filename: '%s'
	node_id: %d
	`,
		importer.filename,
		importer.nodeID,
	)
}

func NewLayoutImporter(fileName string, options ...func(*LayoutImporter)) *LayoutImporter {
	importer := &LayoutImporter{
		filename: fileName,
		logger:   discardLogger(),
	}
	for _, option := range options {
		option(importer)
	}
	return importer
}

func WithNodeID(nodeID int64) func(*LayoutImporter) {
	return func(importer *LayoutImporter) {
		importer.nodeID = osm.NodeID(nodeID)
	}
}

func WithImportLogger(logger logrus.FieldLogger) func(*LayoutImporter) {
	return func(importer *LayoutImporter) {
		importer.logger = logger
	}
}

// Approach is traffic entering the junction along one way
type Approach struct {
	WayID   osm.WayID
	Arm     DirectionName
	Forward bool
	Layout  []LaneType
	// Approach segment (WGS84) ending at the junction node
	Geom orb.LineString
}

// ImportedJunction holds layouts found around the junction node
type ImportedJunction struct {
	NodeID      osm.NodeID
	Location    Location
	ControlType ControlType
	Approaches  []Approach
	// Canonical layouts by arm. Nil for arms without approach
	Layouts [4][]LaneType
}

// Apply sets lane layouts of imported arms and location when configuration has none
func (imported *ImportedJunction) Apply(cfg *RunConfiguration) {
	for _, name := range DirectionsOrder {
		if imported.Layouts[name] == nil {
			continue
		}
		cfg.Direction(name).Lanes = imported.Layouts[name]
	}
	if cfg.Location == nil {
		location := imported.Location
		cfg.Location = &location
	}
}

func newScanner(ctx context.Context, filename string, file io.Reader) (OSMScanner, error) {
	// Guess file extension and prepare correct scanner
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, file), nil
	case ".pbf":
		return osmpbf.New(ctx, file, 4), nil
	default:
		return nil, errors.Wrapf(ErrUnhandledExtension, "'%s' for file '%s'", ext, filename)
	}
}

// Import scans file twice: ways through the node first, then coordinates of the nodes they need
func (importer *LayoutImporter) Import() (*ImportedJunction, error) {
	importer.logger.WithField("file", importer.filename).Info("Opening file")
	file, err := os.Open(importer.filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open OSM file")
	}
	defer file.Close()

	/* Process ways */
	st := time.Now()
	ways := []*WayData{}
	nodesSeen := map[osm.NodeID]struct{}{
		importer.nodeID: {},
	}
	{
		scannerWays, err := newScanner(context.Background(), importer.filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerWays.Close()

		for scannerWays.Scan() {
			way, ok := scannerWays.Object().(*osm.Way)
			if !ok {
				continue
			}
			if getHighwayType(way.Tags.Find("highway")) == 0 {
				continue
			}
			through := false
			for _, node := range way.Nodes {
				if node.ID == importer.nodeID {
					through = true
					break
				}
			}
			if !through {
				continue
			}
			preparedWay := newWayData(way)
			preparedWay.processTags(importer.logger)
			for _, nodeID := range preparedWay.Nodes {
				nodesSeen[nodeID] = struct{}{}
			}
			ways = append(ways, preparedWay)
		}
		if err := scannerWays.Err(); err != nil {
			return nil, errors.Wrap(err, "Can't scan ways")
		}
	}
	importer.logger.WithFields(logrus.Fields{"ways": len(ways), "elapsed": time.Since(st)}).Debug("Ways processed")

	// Seek file to start
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	st = time.Now()
	points := make(map[osm.NodeID]orb.Point, len(nodesSeen))
	controlType := NOT_SIGNAL
	{
		scannerNodes, err := newScanner(context.Background(), importer.filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerNodes.Close()

		for scannerNodes.Scan() {
			node, ok := scannerNodes.Object().(*osm.Node)
			if !ok {
				continue
			}
			if _, ok := nodesSeen[node.ID]; !ok {
				continue
			}
			points[node.ID] = orb.Point{node.Lon, node.Lat}
			if node.ID == importer.nodeID && node.Tags.Find("highway") == "traffic_signals" {
				controlType = IS_SIGNAL
			}
		}
		if err := scannerNodes.Err(); err != nil {
			return nil, errors.Wrap(err, "Can't scan nodes")
		}
	}
	importer.logger.WithFields(logrus.Fields{"nodes": len(points), "elapsed": time.Since(st)}).Debug("Nodes processed")

	centre, ok := points[importer.nodeID]
	if !ok {
		return nil, errors.Wrapf(ErrJunctionNotFound, "node %d", importer.nodeID)
	}
	if controlType != IS_SIGNAL {
		importer.logger.WithField("node", importer.nodeID).Warn("Junction node is not tagged as traffic signals")
	}
	imported := &ImportedJunction{
		NodeID:      importer.nodeID,
		Location:    Location{Lon: centre.Lon(), Lat: centre.Lat()},
		ControlType: controlType,
	}
	for _, way := range ways {
		approaches, err := importer.wayApproaches(way, points)
		if err != nil {
			return nil, err
		}
		for _, approach := range approaches {
			if imported.Layouts[approach.Arm] != nil {
				importer.logger.WithFields(logrus.Fields{"way": way.ID, "arm": approach.Arm.String()}).Warn("Arm already has an approach, skipping")
				continue
			}
			imported.Layouts[approach.Arm] = CanonicalOrder(approach.Layout)
			imported.Approaches = append(imported.Approaches, approach)
		}
	}
	if len(imported.Approaches) == 0 {
		return nil, errors.Wrapf(ErrNoApproaches, "node %d", importer.nodeID)
	}
	return imported, nil
}

// wayApproaches returns approaches into the junction node along the way in both directions of travel
func (importer *LayoutImporter) wayApproaches(way *WayData, points map[osm.NodeID]orb.Point) ([]Approach, error) {
	approaches := []Approach{}
	for idx, nodeID := range way.Nodes {
		if nodeID != importer.nodeID {
			continue
		}
		candidates := []struct {
			forward  bool
			neighbor int
			allowed  bool
		}{
			{true, idx - 1, way.allowsForward()},
			{false, idx + 1, way.allowsBackward()},
		}
		for _, candidate := range candidates {
			if !candidate.allowed || candidate.neighbor < 0 || candidate.neighbor >= len(way.Nodes) {
				continue
			}
			from, ok := points[way.Nodes[candidate.neighbor]]
			if !ok {
				importer.logger.WithFields(logrus.Fields{"way": way.ID, "node": way.Nodes[candidate.neighbor]}).Warn("Node of the way is missing")
				continue
			}
			geom := orb.LineString{from, points[importer.nodeID]}
			if from.Equal(points[importer.nodeID]) {
				continue
			}
			layout, err := approachLayout(way, candidate.forward, importer.logger)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't prepare layout for way %d", way.ID)
			}
			approaches = append(approaches, Approach{
				WayID:   way.ID,
				Arm:     approachArm(lineToEuclidean(geom)),
				Forward: candidate.forward,
				Layout:  layout,
				Geom:    geom,
			})
		}
	}
	return approaches, nil
}

// approachLayout builds lane layout from turn lanes tags or from the lanes count
func approachLayout(way *WayData, forward bool, logger logrus.FieldLogger) ([]LaneType, error) {
	turnLanes, busLanes := way.approachTags(forward)
	var layout []LaneType
	if turnLanes != "" {
		parsed, err := parseTurnLanes(turnLanes)
		if err != nil {
			return nil, err
		}
		layout = parsed
	} else {
		layout = defaultLayout(way.approachLanes(forward))
	}
	if busLanes == "" {
		return layout, nil
	}
	access := strings.Split(busLanes, "|")
	if len(access) != len(layout) {
		logger.WithFields(logrus.Fields{"way": way.ID, "bus_lanes": busLanes, "lanes": len(layout)}).Warn("Bus lanes tag doesn't match lanes count")
		return layout, nil
	}
	for i, value := range access {
		if strings.TrimSpace(value) != "designated" {
			continue
		}
		// Only one cycle/bus lane per arm is supported
		if lo.Contains(layout, LANE_CB) {
			logger.WithFields(logrus.Fields{"way": way.ID, "lane": i}).Warn("Extra designated bus lane treated as general lane")
			continue
		}
		layout[i] = LANE_CB
	}
	return layout, nil
}

// parseTurnLanes converts 'turn:lanes' value (e.g. "left|through|through;right") into lane types ordered as in the tag
func parseTurnLanes(value string) ([]LaneType, error) {
	lanes := strings.Split(value, "|")
	layout := make([]LaneType, 0, len(lanes))
	for _, lane := range lanes {
		movements := [3]bool{}
		for _, token := range strings.Split(lane, ";") {
			movement, ok := turnMovements[strings.TrimSpace(token)]
			if !ok {
				// none, reverse and merge_to_* are not separate movements
				continue
			}
			movements[movement.flowIndex()] = true
		}
		if movements == [3]bool{} {
			movements[MOVEMENT_STRAIGHT.flowIndex()] = true
		}
		laneType, ok := laneTypeByMovements[movements]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownLaneType, "turn lanes '%s'", value)
		}
		layout = append(layout, laneType)
	}
	return layout, nil
}

// defaultLayout returns layout for lanes without turn markings: leftmost lane turns left,
// rightmost lane turns right, remaining lanes go straight
func defaultLayout(lanesNum int) []LaneType {
	switch {
	case lanesNum <= 1:
		return []LaneType{LANE_LRS}
	case lanesNum == 2:
		return []LaneType{LANE_LS, LANE_RS}
	}
	if lanesNum > MaxLanesPerDirection {
		lanesNum = MaxLanesPerDirection
	}
	layout := make([]LaneType, 0, lanesNum)
	for i := 0; i < defaultLeftMostLanes; i++ {
		layout = append(layout, LANE_L)
	}
	for i := 0; i < lanesNum-defaultLeftMostLanes-defaultRightMostLanes; i++ {
		layout = append(layout, LANE_S)
	}
	for i := 0; i < defaultRightMostLanes; i++ {
		layout = append(layout, LANE_R)
	}
	return layout
}
