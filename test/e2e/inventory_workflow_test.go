//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/suite"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/db"
	redis_a "github.com/Bruizy/lego-flip-tracker/internal/adapters/redis_adapter"
	"github.com/Bruizy/lego-flip-tracker/internal/core/services"
	"github.com/Bruizy/lego-flip-tracker/internal/handlers"
	"github.com/Bruizy/lego-flip-tracker/internal/handlers/middleware"
	"github.com/Bruizy/lego-flip-tracker/internal/workers"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
)

type InventoryE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
}

func (s *InventoryE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *InventoryE2ESuite) TearDownSuite() {
	s.server.Close()
}

func (s *InventoryE2ESuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
}

func (s *InventoryE2ESuite) TestCompleteFlipWorkflow() {
	// 1. Create an inventory item
	createReq := map[string]interface{}{
		"name":          "Medieval Blacksmith",
		"set_number":    "21325",
		"purchase_date": "2025-02-14",
		"purchase_cost": 105.00,
		"condition":     "used_complete",
		"batch":         "Estate Sale",
		"has_box":       true,
		"has_manual":    true,
	}

	resp := s.makeRequest("POST", "/items", createReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	s.decodeResponse(resp, &created)

	itemID := created["id"].(string)
	s.NotEmpty(itemID)
	s.Equal("in_stock", created["status"])

	// 2. Retrieve it
	resp = s.makeRequest("GET", "/items/"+itemID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var fetched map[string]interface{}
	s.decodeResponse(resp, &fetched)
	s.Equal("Medieval Blacksmith", fetched["name"])

	// 3. Update it
	updateReq := map[string]interface{}{
		"name":          "Medieval Blacksmith",
		"set_number":    "21325",
		"purchase_date": "2025-02-14",
		"purchase_cost": 95.00,
		"condition":     "used_complete",
		"batch":         "Estate Sale",
		"notes":         "Renegotiated price with seller",
	}

	resp = s.makeRequest("PUT", "/items/"+itemID, updateReq)
	s.Equal(http.StatusOK, resp.StatusCode)

	// 4. Record a sale
	saleReq := map[string]interface{}{
		"sale_date":        "2025-04-02",
		"sale_price":       180.00,
		"shipping_charged": 12.00,
		"shipping_paid":    9.40,
		"fees":             23.80,
		"marketplace":      "eBay",
		"buyer":            "brickfan42",
	}

	resp = s.makeRequest("POST", "/items/"+itemID+"/sale", saleReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var sale map[string]interface{}
	s.decodeResponse(resp, &sale)
	saleID := sale["id"].(string)
	s.NotEmpty(saleID)

	// Selling twice must be rejected
	resp = s.makeRequest("POST", "/items/"+itemID+"/sale", saleReq)
	s.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// 5. Stats reflect the sale
	resp = s.makeRequest("GET", "/stats?range=all", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var report map[string]interface{}
	s.decodeResponse(resp, &report)
	summary := report["summary"].(map[string]interface{})
	s.Equal("192", fmt.Sprint(summary["totalRevenue"]))
	s.Equal(float64(1), summary["soldCount"])

	// 6. Deleting the sale reverts the item to in_stock
	resp = s.makeRequest("DELETE", "/sales/"+saleID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("GET", "/items/"+itemID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &fetched)
	s.Equal("in_stock", fetched["status"])

	// 7. Delete the item
	resp = s.makeRequest("DELETE", "/items/"+itemID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("GET", "/items/"+itemID, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *InventoryE2ESuite) TestCSVImportWorkflow() {
	csvContent := []byte("name,set_number,purchase_date,purchase_cost,condition,batch\n" +
		"Hogwarts Castle,71043,2025-01-10,$250.00,used_complete,Garage Sale Lot\n" +
		"Millennium Falcon,75192,2025-01-10,510.00,new_sealed,Garage Sale Lot\n")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "haul.csv")
	s.NoError(err)

	_, err = io.Copy(part, bytes.NewReader(csvContent))
	s.NoError(err)
	writer.Close()

	req, err := http.NewRequest("POST", s.baseURL+"/import/items", body)
	s.NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	s.NoError(err)

	// Two rows is far below the async threshold, so the import runs inline.
	s.Equal(http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	s.decodeResponse(resp, &result)
	s.Equal(float64(2), result["imported"])
	s.Equal(float64(0), result["skipped"])

	resp = s.makeRequest("GET", "/items?search=falcon", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	items := list["items"].([]interface{})
	s.Len(items, 1)
}

func (s *InventoryE2ESuite) TestListFiltering() {
	names := map[string]string{
		"Rivendell": "10316",
		"Barad-dur": "10333",
		"Concorde":  "10318",
	}
	for name, setNumber := range names {
		resp := s.makeRequest("POST", "/items", map[string]interface{}{
			"name":          name,
			"set_number":    setNumber,
			"purchase_date": "2025-03-01",
			"purchase_cost": 150.00,
			"condition":     "new_sealed",
			"batch":         "March Haul",
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := s.makeRequest("GET", "/items?batch=March+Haul&page_size=10", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	s.Equal(float64(3), list["total_count"])

	resp = s.makeRequest("GET", "/items?search=concorde", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &list)
	items := list["items"].([]interface{})
	s.Len(items, 1)

	resp = s.makeRequest("GET", "/batches", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var batches map[string]interface{}
	s.decodeResponse(resp, &batches)
	s.Contains(batches["batches"], "March Haul")
}

func (s *InventoryE2ESuite) TestExpenseLifecycle() {
	resp := s.makeRequest("POST", "/expenses", map[string]interface{}{
		"amount":   34.99,
		"category": "Bubble mailers",
		"date":     "2025-03-05",
		"note":     "200 pack",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var expense map[string]interface{}
	s.decodeResponse(resp, &expense)
	expenseID := expense["id"].(string)

	resp = s.makeRequest("GET", "/expenses", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	s.Len(list["expenses"], 1)

	resp = s.makeRequest("DELETE", "/expenses/"+expenseID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("GET", "/expenses/"+expenseID, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *InventoryE2ESuite) TestExportXLSX() {
	resp := s.makeRequest("POST", "/items", map[string]interface{}{
		"name":          "Eiffel Tower",
		"set_number":    "10307",
		"purchase_date": "2025-02-01",
		"purchase_cost": 400.00,
		"condition":     "new_sealed",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("GET", "/export/xlsx", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	s.Contains(resp.Header.Get("Content-Disposition"), ".xlsx")

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.NoError(err)
	s.NotEmpty(data)
}

func (s *InventoryE2ESuite) TestConcurrentCreates() {
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(idx int) {
			defer func() { done <- true }()

			resp := s.makeRequest("POST", "/items", map[string]interface{}{
				"name":          fmt.Sprintf("Parallel Set %d", idx),
				"purchase_date": "2025-03-10",
				"purchase_cost": float64(20 + idx*5),
				"condition":     "used_complete",
			})
			s.Equal(http.StatusCreated, resp.StatusCode)
			resp.Body.Close()
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	resp := s.makeRequest("GET", "/items?search=parallel&page_size=20", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	s.Equal(float64(10), list["total_count"])
}

func (s *InventoryE2ESuite) TestHealthCheck() {
	resp := s.makeRequest("GET", "/health", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	s.decodeResponse(resp, &health)
	s.Equal("ok", health["status"])

	req, err := http.NewRequest("GET", s.server.URL+"/health/ready", nil)
	s.NoError(err)
	resp, err = s.client.Do(req)
	s.NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var ready map[string]interface{}
	s.decodeResponse(resp, &ready)
	checks := ready["checks"].(map[string]interface{})
	s.Contains(checks, "database")
	s.Contains(checks, "cache")
}

// startTestServer wires the real dependency graph against the test
// database and Redis, mirroring the API entrypoint.
func (s *InventoryE2ESuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()

	cache := redis_a.NewCache(s.testRedis.Client, cfg.Redis.TTL, logger)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: s.testRedis.Server.Addr()})

	inventoryRepo := db.NewInventoryRepository(s.testDB.Database, logger)
	saleRepo := db.NewSaleRepository(s.testDB.Database, logger)
	expenseRepo := db.NewExpenseRepository(s.testDB.Database, logger)

	inventoryService := services.NewInventoryService(inventoryRepo, saleRepo, cache, logger)
	expenseService := services.NewExpenseService(expenseRepo, cache, logger)
	analyticsService := services.NewAnalyticsService(
		inventoryRepo, saleRepo, expenseRepo, cache, cfg.Analytics.ReportTTL, logger)

	importer := workers.NewImporter(inventoryService, expenseService, logger)

	inventoryHandler := handlers.NewInventoryHandler(inventoryService, logger)
	salesHandler := handlers.NewSalesHandler(inventoryService, logger)
	expensesHandler := handlers.NewExpensesHandler(expenseService, logger)
	statsHandler := handlers.NewStatsHandler(analyticsService, inventoryService, logger)
	importHandler := handlers.NewImportHandler(importer, asynqClient, cache, cfg.FileProcessing, logger)
	exportHandler := handlers.NewExportHandler(analyticsService, asynqClient, cache, logger)
	healthHandler := handlers.NewHealthHandler(s.testDB.Database, cache, "test", logger)

	mux := http.NewServeMux()
	const apiV1 = "/api/v1"

	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("GET "+apiV1+"/items", inventoryHandler.ListItems)
	mux.HandleFunc("POST "+apiV1+"/items", inventoryHandler.CreateItem)
	mux.HandleFunc("GET "+apiV1+"/items/{id}", inventoryHandler.GetItem)
	mux.HandleFunc("PUT "+apiV1+"/items/{id}", inventoryHandler.UpdateItem)
	mux.HandleFunc("DELETE "+apiV1+"/items/{id}", inventoryHandler.DeleteItem)
	mux.HandleFunc("POST "+apiV1+"/items/{id}/trade", inventoryHandler.MarkTraded)
	mux.HandleFunc("GET "+apiV1+"/batches", inventoryHandler.ListBatches)

	mux.HandleFunc("POST "+apiV1+"/items/{id}/sale", salesHandler.RecordSale)
	mux.HandleFunc("GET "+apiV1+"/items/{id}/sale", salesHandler.GetSale)
	mux.HandleFunc("PUT "+apiV1+"/sales/{id}", salesHandler.UpdateSale)
	mux.HandleFunc("DELETE "+apiV1+"/sales/{id}", salesHandler.DeleteSale)

	mux.HandleFunc("GET "+apiV1+"/expenses", expensesHandler.ListExpenses)
	mux.HandleFunc("POST "+apiV1+"/expenses", expensesHandler.CreateExpense)
	mux.HandleFunc("GET "+apiV1+"/expenses/{id}", expensesHandler.GetExpense)
	mux.HandleFunc("PUT "+apiV1+"/expenses/{id}", expensesHandler.UpdateExpense)
	mux.HandleFunc("DELETE "+apiV1+"/expenses/{id}", expensesHandler.DeleteExpense)

	mux.HandleFunc("GET "+apiV1+"/stats", statsHandler.GetStats)
	mux.HandleFunc("GET "+apiV1+"/stats/filters", statsHandler.GetFilters)

	mux.HandleFunc("POST "+apiV1+"/import/{kind}", importHandler.ImportCSV)
	mux.HandleFunc("GET "+apiV1+"/import/jobs/{id}", importHandler.GetJobStatus)

	mux.HandleFunc("GET "+apiV1+"/export/xlsx", exportHandler.ExportXLSX)
	mux.HandleFunc("GET "+apiV1+"/export/json", exportHandler.ExportJSON)

	handler := middleware.RequestID(middleware.Recovery(logger)(mux))

	s.T().Cleanup(func() { asynqClient.Close() })

	return httptest.NewServer(handler)
}

func (s *InventoryE2ESuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.NoError(err)

	return resp
}

func (s *InventoryE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestInventoryE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end tests in short mode")
	}
	suite.Run(t, new(InventoryE2ESuite))
}
