// Package bvh parses Biovision Hierarchy motion files and evaluates their
// skeleton pose frame by frame.
package bvh

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// BvhNode represents a node in a BVH hierarchy.
type BvhNode struct {
	Value    []string
	Children []*BvhNode
	Parent   *BvhNode
}

// AddChild adds a child node to the current node.
func (n *BvhNode) AddChild(item *BvhNode) {
	item.Parent = n
	n.Children = append(n.Children, item)
}

// Filter returns the child nodes whose first token matches key.
func (n *BvhNode) Filter(key string) []*BvhNode {
	var filtered []*BvhNode
	for _, child := range n.Children {
		if len(child.Value) > 0 && child.Value[0] == key {
			filtered = append(filtered, child)
		}
	}
	return filtered
}

// Get returns the tokens following key in the first child that holds it.
func (n *BvhNode) Get(key string) []string {
	for _, child := range n.Children {
		for index, item := range child.Value {
			if item == key {
				if index+1 >= len(child.Value) {
					return nil
				}
				return child.Value[index+1:]
			}
		}
	}
	return nil
}

// IsEndSite reports whether the node is an "End Site" leaf.
func (n *BvhNode) IsEndSite() bool {
	return len(n.Value) > 0 && n.Value[0] == "End"
}

// Name returns the name of the node. End Sites are named after their parent.
func (n *BvhNode) Name() string {
	if n.IsEndSite() && n.Parent != nil {
		return n.Parent.Name() + "_End"
	}
	if len(n.Value) < 2 {
		return ""
	}
	return n.Value[1]
}

// String returns the node's tokens joined by spaces.
func (n *BvhNode) String() string {
	return strings.Join(n.Value, " ")
}

// BvhTree is a parsed BVH file: the hierarchy as a node tree plus the
// decoded motion block.
type BvhTree struct {
	Root   *BvhNode
	Frames [][]float64

	frameTime     float64
	joints        []*BvhNode
	channelOffset map[string]int
}

// NewBvhTree parses BVH text.
func NewBvhTree(data string) (*BvhTree, error) {
	bt := &BvhTree{Root: &BvhNode{}}
	rows, err := bt.tokenize(data)
	if err != nil {
		return nil, err
	}
	if err := bt.index(); err != nil {
		return nil, err
	}
	if err := bt.decodeMotion(rows); err != nil {
		return nil, err
	}
	return bt, nil
}

// ReadFile parses the BVH file at path.
func ReadFile(path string) (*BvhTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewBvhTree(string(data))
}

// tokenize builds the node tree and returns the raw motion rows that follow
// the "Frame Time:" line.
func (bt *BvhTree) tokenize(data string) ([][]string, error) {
	nodeStack := []*BvhNode{bt.Root}
	var node *BvhNode
	var rows [][]string
	frameTimeFound := false

	for _, line := range strings.FieldsFunc(data, func(r rune) bool { return r == '\n' || r == '\r' }) {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if frameTimeFound {
			rows = append(rows, parts)
			continue
		}
		switch key := parts[0]; key {
		case "{":
			if node == nil {
				return nil, fmt.Errorf("%w: '{' without a node", ErrInvalidBVH)
			}
			nodeStack = append(nodeStack, node)
		case "}":
			if len(nodeStack) == 1 {
				return nil, fmt.Errorf("%w: unbalanced '}'", ErrInvalidBVH)
			}
			nodeStack = nodeStack[:len(nodeStack)-1]
		default:
			node = &BvhNode{Value: parts}
			nodeStack[len(nodeStack)-1].AddChild(node)
		}
		if parts[0] == "Frame" && len(parts) > 1 && parts[1] == "Time:" {
			frameTimeFound = true
		}
	}
	if len(nodeStack) != 1 {
		return nil, fmt.Errorf("%w: %d unclosed scopes", ErrInvalidBVH, len(nodeStack)-1)
	}
	if !frameTimeFound {
		return nil, fmt.Errorf("%w: missing MOTION header", ErrInvalidBVH)
	}
	return rows, nil
}

// index collects the joints in depth-first order and checks their OFFSET and
// CHANNELS declarations.
func (bt *BvhTree) index() error {
	roots := bt.Search("ROOT")
	if len(roots) != 1 {
		return fmt.Errorf("%w: want one ROOT, found %d", ErrInvalidBVH, len(roots))
	}

	bt.channelOffset = make(map[string]int)
	total := 0
	for _, joint := range bt.GetJoints(true) {
		if len(joint.Get("OFFSET")) != 3 {
			return fmt.Errorf("%w: %s has no 3-component OFFSET", ErrInvalidBVH, joint.Name())
		}
		if _, err := parseFloats(joint.Get("OFFSET")); err != nil {
			return fmt.Errorf("%w: %s OFFSET: %v", ErrInvalidBVH, joint.Name(), err)
		}
		if joint.IsEndSite() {
			continue
		}
		channels := joint.Get("CHANNELS")
		if len(channels) == 0 {
			return fmt.Errorf("%w: %s has no CHANNELS", ErrInvalidBVH, joint.Name())
		}
		n, err := strconv.Atoi(channels[0])
		if err != nil || n != len(channels)-1 {
			return fmt.Errorf("%w: %s declares %q channels but lists %d", ErrInvalidBVH, joint.Name(), channels[0], len(channels)-1)
		}
		if _, dup := bt.channelOffset[joint.Name()]; dup {
			return fmt.Errorf("%w: duplicate joint %s", ErrInvalidBVH, joint.Name())
		}
		bt.channelOffset[joint.Name()] = total
		bt.joints = append(bt.joints, joint)
		total += n
	}
	return nil
}

func (bt *BvhTree) decodeMotion(rows [][]string) error {
	framesNode := bt.Search("Frames:")
	if len(framesNode) == 0 || len(framesNode[0].Value) < 2 {
		return fmt.Errorf("%w: missing Frames:", ErrInvalidBVH)
	}
	nFrames, err := strconv.Atoi(framesNode[0].Value[1])
	if err != nil || nFrames < 0 {
		return fmt.Errorf("%w: bad frame count %q", ErrInvalidBVH, framesNode[0].Value[1])
	}

	frameTimeNode := bt.Search("Frame", "Time:")
	if len(frameTimeNode[0].Value) < 3 {
		return fmt.Errorf("%w: missing frame time", ErrInvalidBVH)
	}
	if bt.frameTime, err = strconv.ParseFloat(frameTimeNode[0].Value[2], 64); err != nil {
		return fmt.Errorf("%w: bad frame time: %v", ErrInvalidBVH, err)
	}

	if len(rows) != nFrames {
		return fmt.Errorf("%w: header says %d frames, found %d", ErrInvalidBVH, nFrames, len(rows))
	}
	width := bt.NChannels()
	bt.Frames = make([][]float64, nFrames)
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: frame %d has %d values, want %d", ErrInvalidBVH, i, len(row), width)
		}
		if bt.Frames[i], err = parseFloats(row); err != nil {
			return fmt.Errorf("%w: frame %d: %v", ErrInvalidBVH, i, err)
		}
	}
	return nil
}

// Search finds nodes whose leading tokens match items.
func (bt *BvhTree) Search(items ...string) []*BvhNode {
	var foundNodes []*BvhNode
	var checkChildren func(node *BvhNode)
	checkChildren = func(node *BvhNode) {
		if len(node.Value) >= len(items) {
			failed := false
			for index, item := range items {
				if node.Value[index] != item {
					failed = true
					break
				}
			}
			if !failed {
				foundNodes = append(foundNodes, node)
			}
		}
		for _, child := range node.Children {
			checkChildren(child)
		}
	}
	checkChildren(bt.Root)
	return foundNodes
}

// GetJoints returns the joints in depth-first order, optionally including
// End Sites.
func (bt *BvhTree) GetJoints(endSites bool) []*BvhNode {
	if !endSites && bt.joints != nil {
		return bt.joints
	}
	var joints []*BvhNode
	var iterateJoints func(joint *BvhNode)
	iterateJoints = func(joint *BvhNode) {
		joints = append(joints, joint)
		if endSites {
			joints = append(joints, joint.Filter("End")...)
		}
		for _, child := range joint.Filter("JOINT") {
			iterateJoints(child)
		}
	}
	for _, root := range bt.Search("ROOT") {
		iterateJoints(root)
	}
	return joints
}

// GetJointsNames returns the joint names in depth-first order.
func (bt *BvhTree) GetJointsNames(endSites bool) []string {
	joints := bt.GetJoints(endSites)
	names := make([]string, len(joints))
	for i, joint := range joints {
		names[i] = joint.Name()
	}
	return names
}

// GetJoint returns the joint or End Site with the given name.
func (bt *BvhTree) GetJoint(name string) *BvhNode {
	for _, joint := range bt.GetJoints(true) {
		if joint.Name() == name {
			return joint
		}
	}
	return nil
}

// GetJointIndex returns the position of a joint in GetJoints(false).
func (bt *BvhTree) GetJointIndex(name string) int {
	for i, joint := range bt.GetJoints(false) {
		if joint.Name() == name {
			return i
		}
	}
	return -1
}

// JointOffset returns the rest offset of a joint relative to its parent.
func (bt *BvhTree) JointOffset(name string) []float64 {
	joint := bt.GetJoint(name)
	if joint == nil {
		return nil
	}
	offset, _ := parseFloats(joint.Get("OFFSET"))
	return offset
}

// JointChannels returns the channel names of a joint.
func (bt *BvhTree) JointChannels(name string) []string {
	joint := bt.GetJoint(name)
	if joint == nil || joint.IsEndSite() {
		return nil
	}
	return joint.Get("CHANNELS")[1:]
}

// GetJointChannelsIndex returns the column of a joint's first channel in a
// motion row.
func (bt *BvhTree) GetJointChannelsIndex(name string) int {
	if index, ok := bt.channelOffset[name]; ok {
		return index
	}
	return -1
}

// GetJointChannelIndex returns the index of a channel within a joint.
func (bt *BvhTree) GetJointChannelIndex(joint string, channel string) int {
	for i, c := range bt.JointChannels(joint) {
		if c == channel {
			return i
		}
	}
	return -1
}

// FrameJointChannels returns channel values of a joint at a frame. Channels
// the joint does not declare yield value.
func (bt *BvhTree) FrameJointChannels(frameIndex int, joint string, channels []string, value float64) []float64 {
	values := make([]float64, 0, len(channels))
	jointIndex := bt.GetJointChannelsIndex(joint)
	for _, channel := range channels {
		channelIndex := bt.GetJointChannelIndex(joint, channel)
		if jointIndex == -1 || channelIndex == -1 || frameIndex < 0 || frameIndex >= len(bt.Frames) {
			values = append(values, value)
			continue
		}
		values = append(values, bt.Frames[frameIndex][jointIndex+channelIndex])
	}
	return values
}

// JointParent returns the parent of a joint, or nil for the root.
func (bt *BvhTree) JointParent(name string) *BvhNode {
	joint := bt.GetJoint(name)
	if joint == nil || joint.Parent == bt.Root {
		return nil
	}
	return joint.Parent
}

// JointChildren returns the direct children of a joint, including End Sites.
func (bt *BvhTree) JointChildren(name string) []*BvhNode {
	joint := bt.GetJoint(name)
	if joint == nil {
		return nil
	}
	return append(joint.Filter("JOINT"), joint.Filter("End")...)
}

// NChannels returns the width of a motion row.
func (bt *BvhTree) NChannels() int {
	total := 0
	for _, joint := range bt.joints {
		total += len(joint.Get("CHANNELS")) - 1
	}
	return total
}

// NFrames returns the number of frames.
func (bt *BvhTree) NFrames() int {
	return len(bt.Frames)
}

// FrameTime returns the duration of one frame in seconds.
func (bt *BvhTree) FrameTime() float64 {
	return bt.frameTime
}

// Write writes the tree back out as BVH text.
func (bt *BvhTree) Write(out io.Writer) error {
	if _, err := io.WriteString(out, bt.GetHierarchyString()); err != nil {
		return err
	}
	_, err := io.WriteString(out, bt.GetMotionString())
	return err
}

// GetHierarchyString returns the HIERARCHY block.
func (bt *BvhTree) GetHierarchyString() string {
	var s strings.Builder
	s.WriteString("HIERARCHY\n")
	var writeJoint func(joint *BvhNode, depth int)
	writeJoint = func(joint *BvhNode, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&s, "%s%s\n%s{\n", indent, joint.String(), indent)
		fmt.Fprintf(&s, "%s  OFFSET %s\n", indent, strings.Join(joint.Get("OFFSET"), " "))
		if !joint.IsEndSite() {
			fmt.Fprintf(&s, "%s  CHANNELS %s\n", indent, strings.Join(joint.Get("CHANNELS"), " "))
			for _, child := range bt.JointChildren(joint.Name()) {
				writeJoint(child, depth+1)
			}
		}
		fmt.Fprintf(&s, "%s}\n", indent)
	}
	for _, root := range bt.Search("ROOT") {
		writeJoint(root, 0)
	}
	return s.String()
}

// GetMotionString returns the MOTION block.
func (bt *BvhTree) GetMotionString() string {
	var s strings.Builder
	s.WriteString("MOTION\n")
	fmt.Fprintf(&s, "Frames: %d\n", bt.NFrames())
	fmt.Fprintf(&s, "Frame Time: %s\n", strconv.FormatFloat(bt.frameTime, 'f', -1, 64))
	for _, frame := range bt.Frames {
		for i, v := range frame {
			if i > 0 {
				s.WriteByte(' ')
			}
			s.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		s.WriteByte('\n')
	}
	return s.String()
}

func parseFloats(items []string) ([]float64, error) {
	result := make([]float64, len(items))
	for i, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, err
		}
		result[i] = f
	}
	return result, nil
}
