package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("source")

// Default file names as delivered by the ingestion process.
const (
	OrdersFile       = "olist_orders_dataset.csv"
	CustomersFile    = "olist_customers_dataset.csv"
	OrderItemsFile   = "olist_order_items_dataset.csv"
	PaymentsFile     = "olist_order_payments_dataset.csv"
	ProductsFile     = "olist_products_dataset.csv"
	SellersFile      = "olist_sellers_dataset.csv"
	ReviewsFile      = "olist_order_reviews_dataset.csv"
	TranslationsFile = "product_category_name_translation.csv"
	GeolocationFile  = "olist_geolocation_dataset.csv"
)

// LoadDataset reads all nine raw datasets from dir. Files that are absent
// produce an error for the required sets (orders, customers, order items,
// payments) and an empty slice for the optional ones.
func LoadDataset(dir string) (*Dataset, error) {
	ds := &Dataset{}

	if err := readCSV(filepath.Join(dir, OrdersFile), 8, func(rec []string) {
		ds.Orders = append(ds.Orders, RawOrder{
			OrderID:               rec[0],
			CustomerID:            rec[1],
			Status:                rec[2],
			PurchaseTimestamp:     rec[3],
			ApprovedAt:            rec[4],
			DeliveredCarrierDate:  rec[5],
			DeliveredCustomerDate: rec[6],
			EstimatedDeliveryDate: rec[7],
		})
	}); err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}

	if err := readCSV(filepath.Join(dir, CustomersFile), 5, func(rec []string) {
		ds.Customers = append(ds.Customers, RawCustomer{
			CustomerID:    rec[0],
			UniqueID:      rec[1],
			ZipCodePrefix: rec[2],
			City:          rec[3],
			State:         rec[4],
		})
	}); err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}

	if err := readCSV(filepath.Join(dir, OrderItemsFile), 7, func(rec []string) {
		ds.OrderItems = append(ds.OrderItems, RawOrderItem{
			OrderID:           rec[0],
			ItemSequence:      rec[1],
			ProductID:         rec[2],
			SellerID:          rec[3],
			ShippingLimitDate: rec[4],
			Price:             rec[5],
			FreightValue:      rec[6],
		})
	}); err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}

	if err := readCSV(filepath.Join(dir, PaymentsFile), 5, func(rec []string) {
		ds.Payments = append(ds.Payments, RawPayment{
			OrderID:      rec[0],
			Sequential:   rec[1],
			Type:         rec[2],
			Installments: rec[3],
			Value:        rec[4],
		})
	}); err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}

	if err := readOptionalCSV(filepath.Join(dir, ProductsFile), 9, func(rec []string) {
		ds.Products = append(ds.Products, RawProduct{
			ProductID:    rec[0],
			CategoryName: rec[1],
			NameLength:   rec[2],
			DescLength:   rec[3],
			PhotosQty:    rec[4],
			WeightGrams:  rec[5],
			LengthCm:     rec[6],
			HeightCm:     rec[7],
			WidthCm:      rec[8],
		})
	}); err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}

	if err := readOptionalCSV(filepath.Join(dir, SellersFile), 4, func(rec []string) {
		ds.Sellers = append(ds.Sellers, RawSeller{
			SellerID:      rec[0],
			ZipCodePrefix: rec[1],
			City:          rec[2],
			State:         rec[3],
		})
	}); err != nil {
		return nil, fmt.Errorf("sellers: %w", err)
	}

	if err := readOptionalCSV(filepath.Join(dir, ReviewsFile), 7, func(rec []string) {
		ds.Reviews = append(ds.Reviews, RawReview{
			ReviewID:        rec[0],
			OrderID:         rec[1],
			Score:           rec[2],
			CommentTitle:    rec[3],
			CommentMessage:  rec[4],
			CreationDate:    rec[5],
			AnswerTimestamp: rec[6],
		})
	}); err != nil {
		return nil, fmt.Errorf("reviews: %w", err)
	}

	if err := readOptionalCSV(filepath.Join(dir, TranslationsFile), 2, func(rec []string) {
		ds.Translations = append(ds.Translations, RawCategoryTranslation{
			CategoryName:        rec[0],
			CategoryNameEnglish: rec[1],
		})
	}); err != nil {
		return nil, fmt.Errorf("category translations: %w", err)
	}

	if err := readOptionalCSV(filepath.Join(dir, GeolocationFile), 5, func(rec []string) {
		ds.Geolocations = append(ds.Geolocations, RawGeolocation{
			ZipCodePrefix: rec[0],
			Lat:           rec[1],
			Lng:           rec[2],
			City:          rec[3],
			State:         rec[4],
		})
	}); err != nil {
		return nil, fmt.Errorf("geolocation: %w", err)
	}

	log.Infof("loaded dataset from %s: %d orders, %d customers, %d items, %d payments",
		dir, len(ds.Orders), len(ds.Customers), len(ds.OrderItems), len(ds.Payments))

	return ds, nil
}

// readCSV streams a headered CSV file row by row. Rows with fewer columns
// than expected are skipped with a warning rather than aborting the load.
func readCSV(path string, minCols int, accept func([]string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // validated per row below

	header := true
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		line++
		if header {
			header = false
			continue
		}
		if len(rec) < minCols {
			log.Warningf("%s line %d: %d columns, want %d, skipping", filepath.Base(path), line, len(rec), minCols)
			continue
		}
		accept(rec)
	}
	return nil
}

func readOptionalCSV(path string, minCols int, accept func([]string)) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warningf("optional dataset missing: %s", filepath.Base(path))
		return nil
	}
	return readCSV(path, minCols, accept)
}
