package service

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"testing"
	"time"

	"github.com/somar/dispatch/internal/config"
	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type dispatchServiceFixture struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	riderRepo repository.RiderRepository
	orders    *OrderService
	dispatch  *DispatchService
}

func setupDispatchServiceTest(t *testing.T) *dispatchServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:dispatch_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Rider{}, &models.Merchant{}, &models.Customer{},
		&models.Order{}, &models.CashMovement{}, &models.TransferLog{}, &models.Setting{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	riderRepo := repository.NewRiderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	ledger := NewLedgerService(riderRepo)
	settings := NewSettingsService(settingRepo)
	uploader := NewUploadService(&config.Config{})
	orders := NewOrderService(orderRepo, riderRepo, ledger, settings, uploader, nil)
	dispatch := NewDispatchService(orderRepo, riderRepo, customerRepo, merchantRepo, orders, settings, uploader, nil, nil, 0)

	return &dispatchServiceFixture{
		db:        db,
		orderRepo: orderRepo,
		riderRepo: riderRepo,
		orders:    orders,
		dispatch:  dispatch,
	}
}

func validCreateOrderInput() CreateOrderInput {
	return CreateOrderInput{
		Type:            constants.OrderTypePurchase,
		CustomerName:    "Carlos Ruiz",
		CustomerPhone:   "+57 310 555 0202",
		DeliveryAddress: "Carrera 9 #45-60",
		ShippingFee:     decimal.NewFromInt(100),
		PurchaseTotal:   decimal.NewFromInt(500),
		Tip:             decimal.NewFromInt(20),
		PaymentMethod:   constants.PaymentMethodCash,
	}
}

// makeTestFileHeader builds a real multipart file header the way gin hands
// one to a handler.
func makeTestFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("receipt", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 4096)
	if err != nil {
		t.Fatalf("failed to read multipart form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["receipt"][0]
}

func TestCreateOrderValidation(t *testing.T) {
	f := setupDispatchServiceTest(t)

	input := validCreateOrderInput()
	input.Type = "express"
	input.PaymentMethod = "card"
	input.CustomerName = ""
	input.DeliveryAddress = " "
	input.ShippingFee = decimal.Zero

	_, err := f.dispatch.CreateOrder(input)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("CreateOrder error = %v, want ValidationError", err)
	}
	for _, field := range []string{"type", "payment_method", "customer_name", "delivery_address", "shipping_fee"} {
		if _, ok := validationErr.Fields[field]; !ok {
			t.Fatalf("validation error missing field %s: %v", field, validationErr.Fields)
		}
	}
}

func TestCreateOrderSequentialNumbers(t *testing.T) {
	f := setupDispatchServiceTest(t)

	first, err := f.dispatch.CreateOrder(validCreateOrderInput())
	if err != nil {
		t.Fatalf("first CreateOrder failed: %v", err)
	}
	second, err := f.dispatch.CreateOrder(validCreateOrderInput())
	if err != nil {
		t.Fatalf("second CreateOrder failed: %v", err)
	}

	if first.OrderNo != "PED-00001" {
		t.Fatalf("first order no = %s, want PED-00001", first.OrderNo)
	}
	if second.OrderNo != "PED-00002" {
		t.Fatalf("second order no = %s, want PED-00002", second.OrderNo)
	}
	if first.Status != constants.OrderStatusUnassigned {
		t.Fatalf("status = %s, want unassigned", first.Status)
	}
}

func TestCreateOrderStoresComputedSplit(t *testing.T) {
	f := setupDispatchServiceTest(t)

	order, err := f.dispatch.CreateOrder(validCreateOrderInput())
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if got := order.RiderEarning.String(); got != "86.66" {
		t.Fatalf("rider earning = %s, want 86.66", got)
	}
	if got := order.PlatformMargin.String(); got != "33.34" {
		t.Fatalf("platform margin = %s, want 33.34", got)
	}
	if got := order.AmountDue.String(); got != "620.00" {
		t.Fatalf("amount due = %s, want 620.00", got)
	}
}

func TestPreviewSplitMatchesStoredSplit(t *testing.T) {
	f := setupDispatchServiceTest(t)
	input := validCreateOrderInput()

	preview, err := f.dispatch.PreviewSplit(input.ShippingFee, input.PurchaseTotal, input.Tip, input.PaymentMethod)
	if err != nil {
		t.Fatalf("PreviewSplit failed: %v", err)
	}
	order, err := f.dispatch.CreateOrder(input)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if preview.RiderEarning.String() != order.RiderEarning.String() ||
		preview.PlatformMargin.String() != order.PlatformMargin.String() ||
		preview.AmountDue.String() != order.AmountDue.String() {
		t.Fatalf("preview %+v differs from stored order split", preview)
	}
}

func TestCreateOrderDirectAssign(t *testing.T) {
	f := setupDispatchServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)

	input := validCreateOrderInput()
	input.RiderID = &rider.ID
	order, err := f.dispatch.CreateOrder(input)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.Status != constants.OrderStatusAssigned {
		t.Fatalf("status = %s, want assigned", order.Status)
	}
	if order.RiderID == nil || *order.RiderID != rider.ID {
		t.Fatalf("rider not recorded on order")
	}
}

func TestCreateOrderDirectAssignFailureKeepsOrder(t *testing.T) {
	f := setupDispatchServiceTest(t)
	rider := createTestRider(t, f.db, "suspendido", "0", false)

	input := validCreateOrderInput()
	input.RiderID = &rider.ID
	order, err := f.dispatch.CreateOrder(input)
	if !errors.Is(err, ErrRiderInactive) {
		t.Fatalf("CreateOrder error = %v, want ErrRiderInactive", err)
	}
	if order == nil {
		t.Fatalf("created order not returned alongside assign failure")
	}

	reloaded, _ := f.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusUnassigned {
		t.Fatalf("status = %s, want unassigned", reloaded.Status)
	}
}

func TestCreateOrderCustomerPrefill(t *testing.T) {
	f := setupDispatchServiceTest(t)
	customer := &models.Customer{Name: "María López", Phone: "+57 310 555 0101", Address: "Calle 22 #3-15"}
	if err := f.db.Create(customer).Error; err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}

	input := validCreateOrderInput()
	input.CustomerID = &customer.ID
	input.CustomerName = ""
	input.CustomerPhone = ""
	input.DeliveryAddress = ""

	order, err := f.dispatch.CreateOrder(input)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.CustomerName != customer.Name || order.CustomerPhone != customer.Phone || order.DeliveryAddress != customer.Address {
		t.Fatalf("customer profile not prefilled: %+v", order)
	}
}

func TestCreateOrderUnknownReferences(t *testing.T) {
	f := setupDispatchServiceTest(t)

	var validationErr *ValidationError
	missingCustomer := uint(404)
	input := validCreateOrderInput()
	input.CustomerID = &missingCustomer
	if _, err := f.dispatch.CreateOrder(input); !errors.As(err, &validationErr) {
		t.Fatalf("unknown customer error = %v, want ValidationError", err)
	}

	missingMerchant := uint(404)
	input = validCreateOrderInput()
	input.MerchantID = &missingMerchant
	if _, err := f.dispatch.CreateOrder(input); !errors.As(err, &validationErr) {
		t.Fatalf("unknown merchant error = %v, want ValidationError", err)
	}
}

func TestValidateTransferReceipt(t *testing.T) {
	f := setupDispatchServiceTest(t)
	chdirTemp(t)

	rider := createTestRider(t, f.db, "camila", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusArrived, constants.OrderTypePickup, constants.PaymentMethodTransfer, &rider.ID)
	receipt := makeTestFileHeader(t, "comprobante.jpg", []byte("fake image bytes"))

	validated, err := f.dispatch.ValidateTransferReceipt(order.ID, 1, receipt)
	if err != nil {
		t.Fatalf("ValidateTransferReceipt failed: %v", err)
	}
	if validated.ReceiptStatus != constants.ReceiptStatusValidated {
		t.Fatalf("receipt status = %s, want validated", validated.ReceiptStatus)
	}
	if validated.ReceiptURL == "" || validated.ReceiptValidatedAt == nil {
		t.Fatalf("receipt url or timestamp missing: %+v", validated)
	}

	logs, err := f.orders.ListTransferLogs(order.ID)
	if err != nil {
		t.Fatalf("ListTransferLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("transfer log count = %d, want 1", len(logs))
	}
	// purchase 500 + shipping 100 + tip 20
	if got := logs[0].Amount.String(); got != "620.00" {
		t.Fatalf("transfer log amount = %s, want 620.00", got)
	}

	// Finalize is unblocked once the receipt is validated.
	if _, err := f.orders.Finalize(order.ID, rider.ID); err != nil {
		t.Fatalf("Finalize after validation failed: %v", err)
	}
}

func TestValidateTransferReceiptRejectsCashOrder(t *testing.T) {
	f := setupDispatchServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusArrived, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)

	var validationErr *ValidationError
	receipt := makeTestFileHeader(t, "comprobante.jpg", []byte("fake image bytes"))
	if _, err := f.dispatch.ValidateTransferReceipt(order.ID, 1, receipt); !errors.As(err, &validationErr) {
		t.Fatalf("ValidateTransferReceipt error = %v, want ValidationError", err)
	}
}

func TestDispatchCancelForwardsToStateMachine(t *testing.T) {
	f := setupDispatchServiceTest(t)

	order, err := f.dispatch.CreateOrder(validCreateOrderInput())
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	canceled, err := f.dispatch.Cancel(order.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("status = %s, want canceled", canceled.Status)
	}
	if _, err := f.dispatch.Cancel(order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("repeat Cancel error = %v, want ErrInvalidTransition", err)
	}
}

func TestRiderDirectoryFiltersActive(t *testing.T) {
	f := setupDispatchServiceTest(t)
	createTestRider(t, f.db, "activo", "0", true)
	createTestRider(t, f.db, "inactivo", "0", false)

	riders, total, err := f.dispatch.RiderDirectory(repository.RiderListFilter{OnlyActive: true})
	if err != nil {
		t.Fatalf("RiderDirectory failed: %v", err)
	}
	if total != 1 || len(riders) != 1 {
		t.Fatalf("total = %d len = %d, want 1", total, len(riders))
	}
	if riders[0].Name != "activo" {
		t.Fatalf("rider name = %s, want activo", riders[0].Name)
	}
}
