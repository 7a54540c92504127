package skeleton

// Root joint name of each convention. Both are index 0 of their name list.
const (
	BVHRoot  = "Hips"
	SMPLRoot = "pelvis"
)

// BVHJointNames is the 51-joint motion-capture skeleton in depth-first order.
var BVHJointNames = Names{
	"Hips",
	"Spine",
	"Spine1",
	"Neck",
	"Head",
	"LeftShoulder",
	"LeftArm",
	"LeftForeArm",
	"LeftHand",
	"LeftHandThumb1",
	"LeftHandThumb2",
	"LeftHandThumb3",
	"LeftHandIndex1",
	"LeftHandIndex2",
	"LeftHandIndex3",
	"LeftHandMiddle1",
	"LeftHandMiddle2",
	"LeftHandMiddle3",
	"LeftHandRing1",
	"LeftHandRing2",
	"LeftHandRing3",
	"LeftHandPinky1",
	"LeftHandPinky2",
	"LeftHandPinky3",
	"RightShoulder",
	"RightArm",
	"RightForeArm",
	"RightHand",
	"RightHandThumb1",
	"RightHandThumb2",
	"RightHandThumb3",
	"RightHandIndex1",
	"RightHandIndex2",
	"RightHandIndex3",
	"RightHandMiddle1",
	"RightHandMiddle2",
	"RightHandMiddle3",
	"RightHandRing1",
	"RightHandRing2",
	"RightHandRing3",
	"RightHandPinky1",
	"RightHandPinky2",
	"RightHandPinky3",
	"LeftUpLeg",
	"LeftLeg",
	"LeftFoot",
	"LeftToeBase",
	"RightUpLeg",
	"RightLeg",
	"RightFoot",
	"RightToeBase",
}

// SMPLJointNames is the 45-joint body model skeleton.
var SMPLJointNames = Names{
	"pelvis",
	"left_hip",
	"right_hip",
	"spine_1",
	"left_knee",
	"right_knee",
	"spine_2",
	"left_ankle",
	"right_ankle",
	"spine_3",
	"left_foot",
	"right_foot",
	"neck",
	"left_collar",
	"right_collar",
	"head",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hand",
	"right_hand",
	"nose",
	"right_eye",
	"left_eye",
	"right_ear",
	"left_ear",
	"left_big_toe",
	"left_small_toe",
	"left_heel",
	"right_big_toe",
	"right_small_toe",
	"right_heel",
	"left_thumb",
	"left_index",
	"left_middle",
	"left_ring",
	"left_pinky",
	"right_thumb",
	"right_index",
	"right_middle",
	"right_ring",
	"right_pinky",
}

// BVHToSMPL maps BVH joints onto SMPL joints. SMPL joints without a BVH
// counterpart (spine_3, feet, face, heels, small toes, hands) are absent.
var BVHToSMPL = Mapping{
	{"Hips", "pelvis"},
	{"LeftUpLeg", "left_hip"},
	{"RightUpLeg", "right_hip"},
	{"Spine", "spine_1"},
	{"Spine1", "spine_2"},
	{"Neck", "neck"},
	{"Head", "head"},
	{"LeftLeg", "left_knee"},
	{"RightLeg", "right_knee"},
	{"LeftFoot", "left_ankle"},
	{"RightFoot", "right_ankle"},
	{"LeftToeBase", "left_big_toe"},
	{"RightToeBase", "right_big_toe"},
	{"LeftShoulder", "left_collar"},
	{"RightShoulder", "right_collar"},
	{"LeftArm", "left_shoulder"},
	{"RightArm", "right_shoulder"},
	{"LeftForeArm", "left_elbow"},
	{"RightForeArm", "right_elbow"},
	{"LeftHand", "left_wrist"},
	{"RightHand", "right_wrist"},
	{"LeftHandThumb1", "left_thumb"},
	{"LeftHandIndex1", "left_index"},
	{"LeftHandMiddle1", "left_middle"},
	{"LeftHandRing1", "left_ring"},
	{"LeftHandPinky1", "left_pinky"},
	{"RightHandThumb1", "right_thumb"},
	{"RightHandIndex1", "right_index"},
	{"RightHandMiddle1", "right_middle"},
	{"RightHandRing1", "right_ring"},
	{"RightHandPinky1", "right_pinky"},
}

// Lower-limb joints shifted sideways by the widening pass. Entries are
// mirrored index for index.
var (
	LeftLegJoints = Names{
		"left_hip",
		"left_knee",
		"left_ankle",
		"left_foot",
		"left_big_toe",
		"left_small_toe",
		"left_heel",
	}
	RightLegJoints = Names{
		"right_hip",
		"right_knee",
		"right_ankle",
		"right_foot",
		"right_big_toe",
		"right_small_toe",
		"right_heel",
	}
)
