package domain

// Action is a kind of task mutation subject to authorization.
type Action string

const (
	ActionUpdate   Action = "update"
	ActionStatus   Action = "status"
	ActionPriority Action = "priority"
	ActionAssign   Action = "assign"
	ActionDelete   Action = "delete"
)

// CanMutateTask reports whether user may perform action on task.
//
// Admins may do anything. Managers may edit, reprioritize, change status and
// reassign any task but may delete only tasks they created. Users may mutate
// only tasks they created.
func CanMutateTask(user *User, task *Task, action Action) bool {
	if user == nil || task == nil {
		return false
	}

	switch user.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		if action == ActionDelete {
			return task.IsCreator(user.ID)
		}
		return true
	default:
		return task.IsCreator(user.ID)
	}
}

// CanViewTask reports whether user may see task in listings.
func CanViewTask(user *User, task *Task) bool {
	if user == nil || task == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return task.IsCreator(user.ID) || task.IsAssignee(user.ID)
}
