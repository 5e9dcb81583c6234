package enums

// AuditOperation labels an audit log entry. Values are free text in storage;
// these are the ones the backend writes itself.
type AuditOperation string

const (
	AuditOperationIssue              AuditOperation = "Issue PPE"
	AuditOperationReplace            AuditOperation = "Replace PPE"
	AuditOperationReturn             AuditOperation = "Return PPE"
	AuditOperationEditAssignment     AuditOperation = "Edit Assignment"
	AuditOperationDeleteAssignment   AuditOperation = "Delete Assignment"
	AuditOperationAddEmployee        AuditOperation = "Add Employee"
	AuditOperationEditEmployee       AuditOperation = "Edit Employee"
	AuditOperationDeleteEmployee     AuditOperation = "Delete Employee"
	AuditOperationAddCategory        AuditOperation = "Add Category"
	AuditOperationEditCategory       AuditOperation = "Edit Category"
	AuditOperationDeleteCategory     AuditOperation = "Delete Category"
	AuditOperationAddMasterItem      AuditOperation = "Add Master Item"
	AuditOperationEditMasterItem     AuditOperation = "Edit Master Item"
	AuditOperationDeleteMasterItem   AuditOperation = "Delete Master Item"
	AuditOperationStockReceipt       AuditOperation = "Stock Receipt"
	AuditOperationStockCorrection    AuditOperation = "Stock Correction"
	AuditOperationStockDecrement     AuditOperation = "Stock Decrement"
	AuditOperationStockDecrementFail AuditOperation = "Stock Decrement Failed"
	AuditOperationStockDrift         AuditOperation = "Stock Drift"
	AuditOperationSaveSettings       AuditOperation = "Save Settings"
	AuditOperationSeed               AuditOperation = "Seed"
)

// String implements fmt.Stringer.
func (o AuditOperation) String() string {
	return string(o)
}
