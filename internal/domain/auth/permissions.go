package auth

const (
	RoleEmployer  = "employer"
	RoleInspector = "inspector"
	RoleAdmin     = "admin"
)

const (
	PermVoucherSearch            = "voucher.search"
	PermVoucherSearchAll         = "voucher.search_all"
	PermVoucherCreate            = "voucher.create"
	PermVoucherUpdate            = "voucher.update"
	PermVoucherDelete            = "voucher.delete"
	PermVoucherAcquireUnassigned = "voucher.acquire_unassigned"
	PermVoucherAcquireAssigned   = "voucher.acquire_assigned"
	PermVoucherAssign            = "voucher.assign"
	PermWorkerRead               = "worker.read"
	PermWorkerWrite              = "worker.write"
	PermWorkerUpload             = "worker.upload"
	PermGroupRead                = "group.read"
	PermGroupWrite               = "group.write"
	PermAuditRead                = "audit.read"
)

var DefaultPermissions = []string{
	PermVoucherSearch,
	PermVoucherSearchAll,
	PermVoucherCreate,
	PermVoucherUpdate,
	PermVoucherDelete,
	PermVoucherAcquireUnassigned,
	PermVoucherAcquireAssigned,
	PermVoucherAssign,
	PermWorkerRead,
	PermWorkerWrite,
	PermWorkerUpload,
	PermGroupRead,
	PermGroupWrite,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleEmployer: {
		PermVoucherSearch,
		PermVoucherAcquireUnassigned,
		PermVoucherAcquireAssigned,
		PermVoucherAssign,
		PermWorkerRead,
		PermWorkerWrite,
		PermWorkerUpload,
		PermGroupRead,
		PermGroupWrite,
	},
	RoleInspector: {
		PermVoucherSearch,
		PermVoucherSearchAll,
		PermWorkerRead,
	},
	RoleAdmin: DefaultPermissions,
}
