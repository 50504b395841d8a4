package folder_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	categoryDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/category"
	folderDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/folder"
	"github.com/frahmantamala/medical-filemanager/internal/core/testdb"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	folderPostgres "github.com/frahmantamala/medical-filemanager/internal/folder/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func countRows(db *gorm.DB, model interface{}) int64 {
	var n int64
	Expect(db.Model(model).Count(&n).Error).To(Succeed())
	return n
}

func expectedDays(start, end int) int {
	total := 0
	for y := start; y <= end; y++ {
		for m := 1; m <= 12; m++ {
			total += folder.DaysIn(y, m)
		}
	}
	return total
}

// loseNextInsert makes the next insert into table lose a race: the competing
// row is written right before gorm opens the insert's transaction, after the
// caller's lookup has already missed.
func loseNextInsert(db *gorm.DB, table, insert string, args ...interface{}) {
	armed := true
	Expect(db.Callback().Create().Before("gorm:begin_transaction").Register("test:lose_insert_"+table, func(tx *gorm.DB) {
		if !armed || tx.Statement.Table != table {
			return
		}
		armed = false
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, insert, args...)
		Expect(err).NotTo(HaveOccurred())
	})).To(Succeed())
}

func folderID(db *gorm.DB, table, where string, args ...interface{}) int64 {
	var id int64
	Expect(db.Table(table).Select("id").Where(where, args...).Scan(&id).Error).To(Succeed())
	return id
}

var _ = Describe("Folder provisioning", func() {
	var (
		db         *gorm.DB
		repo       folder.RepositoryAPI
		ctx        context.Context
		slogger    *slog.Logger
		categoryID int64
	)

	BeforeEach(func() {
		ctx = context.Background()
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db = testdb.MustOpen()
		repo = folderPostgres.NewFolderRepository(db)

		deptID := testdb.SeedDepartment(db, "LAB", "Laboratory")
		cat := &categoryDatamodel.Category{Name: "Labs", DepartmentID: deptID}
		Expect(db.Create(cat).Error).To(Succeed())
		categoryID = cat.ID
	})

	Describe("Provision", func() {
		It("creates the full default range with calendar-correct days", func() {
			provisioner := folder.NewProvisioner(repo, 2015, 2040, slogger)

			res, err := provisioner.Provision(ctx, categoryID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Years).To(Equal(26))
			Expect(res.Months).To(Equal(26 * 12))
			Expect(res.Days).To(Equal(expectedDays(2015, 2040)))

			Expect(countRows(db, &folderDatamodel.YearFolder{})).To(BeEquivalentTo(26))
			Expect(countRows(db, &folderDatamodel.MonthFolder{})).To(BeEquivalentTo(312))
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(BeEquivalentTo(expectedDays(2015, 2040)))
		})

		It("creates exactly DaysIn date folders for every month", func() {
			provisioner := folder.NewProvisioner(repo, 2023, 2025, slogger)
			_, err := provisioner.Provision(ctx, categoryID)
			Expect(err).NotTo(HaveOccurred())

			type monthCount struct {
				Year  int
				Month int
				Days  int
			}
			var counts []monthCount
			err = db.Table("date_folders AS d").
				Select("y.year AS year, m.month AS month, COUNT(*) AS days").
				Joins("JOIN month_folders AS m ON m.id = d.month_folder_id").
				Joins("JOIN year_folders AS y ON y.id = m.year_folder_id").
				Group("y.year, m.month").
				Scan(&counts).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(HaveLen(36))
			for _, c := range counts {
				Expect(c.Days).To(Equal(folder.DaysIn(c.Year, c.Month)), "year %d month %d", c.Year, c.Month)
			}
		})

		It("is a no-op when rerun", func() {
			provisioner := folder.NewProvisioner(repo, 2023, 2025, slogger)
			_, err := provisioner.Provision(ctx, categoryID)
			Expect(err).NotTo(HaveOccurred())
			before := countRows(db, &folderDatamodel.DateFolder{})

			res, err := provisioner.Provision(ctx, categoryID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Total()).To(Equal(0))
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(Equal(before))
			Expect(countRows(db, &folderDatamodel.YearFolder{})).To(BeEquivalentTo(3))
		})

		It("completes a partially provisioned tree", func() {
			resolver := folder.NewResolver(repo, slogger)
			_, err := resolver.Resolve(ctx, categoryID, 2024, 2, 29)
			Expect(err).NotTo(HaveOccurred())
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(BeEquivalentTo(1))

			provisioner := folder.NewProvisioner(repo, 2024, 2024, slogger)
			res, err := provisioner.Provision(ctx, categoryID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Years).To(Equal(0))
			Expect(res.Months).To(Equal(11))
			Expect(res.Days).To(Equal(365))
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(BeEquivalentTo(366))
		})

		It("tolerates concurrent provisioners", func() {
			provisioner := folder.NewProvisioner(repo, 2024, 2025, slogger)

			var wg sync.WaitGroup
			errs := make([]error, 3)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = provisioner.Provision(ctx, categoryID)
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(BeEquivalentTo(366 + 365))
		})

		It("stops when the context is cancelled", func() {
			provisioner := folder.NewProvisioner(repo, 2015, 2040, slogger)
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := provisioner.Provision(cancelled, categoryID)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("Resolve", func() {
		var resolver *folder.Resolver

		BeforeEach(func() {
			resolver = folder.NewResolver(repo, slogger)
		})

		It("returns the provisioned folder when it exists", func() {
			_, err := folder.NewProvisioner(repo, 2025, 2025, slogger).Provision(ctx, categoryID)
			Expect(err).NotTo(HaveOccurred())

			df, err := resolver.Resolve(ctx, categoryID, 2025, 3, 14)
			Expect(err).NotTo(HaveOccurred())
			Expect(df.CategoryID).To(Equal(categoryID))
			Expect(df.Year).To(Equal(2025))
			Expect(df.Month).To(Equal(3))
			Expect(df.Day).To(Equal(14))
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(BeEquivalentTo(365))
		})

		It("creates a missing chain on demand and reuses it", func() {
			first, err := resolver.Resolve(ctx, categoryID, 2030, 7, 1)
			Expect(err).NotTo(HaveOccurred())

			second, err := resolver.Resolve(ctx, categoryID, 2030, 7, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(countRows(db, &folderDatamodel.YearFolder{})).To(BeEquivalentTo(1))
		})

		It("adopts the year folder of a writer that inserted it first", func() {
			loseNextInsert(db, "year_folders", "INSERT INTO year_folders (category_id, year) VALUES (?, ?)", categoryID, 2031)

			df, err := resolver.Resolve(ctx, categoryID, 2031, 5, 9)
			Expect(err).NotTo(HaveOccurred())
			Expect(countRows(db, &folderDatamodel.YearFolder{})).To(BeEquivalentTo(1))

			chain, err := resolver.Chain(ctx, df.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.CategoryID).To(Equal(categoryID))
			Expect(chain.Date().Format("2006-01-02")).To(Equal("2031-05-09"))
		})

		It("returns the winning row when a date folder insert conflicts", func() {
			yearID, err := repo.GetOrCreateYear(ctx, categoryID, 2032)
			Expect(err).NotTo(HaveOccurred())
			monthID, err := repo.GetOrCreateMonth(ctx, yearID, 8)
			Expect(err).NotTo(HaveOccurred())

			fullDate := time.Date(2032, 8, 15, 0, 0, 0, 0, time.UTC)
			loseNextInsert(db, "date_folders", "INSERT INTO date_folders (month_folder_id, day, full_date) VALUES (?, ?, ?)", monthID, 15, fullDate)

			id, err := repo.GetOrCreateDate(ctx, monthID, 15, fullDate)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(folderID(db, "date_folders", "month_folder_id = ? AND day = ?", monthID, 15)))
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(BeEquivalentTo(1))
		})

		It("resolves the same date from concurrent uploads to one folder", func() {
			var wg sync.WaitGroup
			ids := make([]int64, 4)
			errs := make([]error, 4)
			for i := range ids {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					df, err := resolver.Resolve(ctx, categoryID, 2033, 1, 20)
					errs[i] = err
					if err == nil {
						ids[i] = df.ID
					}
				}(i)
			}
			wg.Wait()

			for i := range ids {
				Expect(errs[i]).NotTo(HaveOccurred())
				Expect(ids[i]).To(Equal(ids[0]))
			}
			Expect(countRows(db, &folderDatamodel.YearFolder{})).To(BeEquivalentTo(1))
			Expect(countRows(db, &folderDatamodel.MonthFolder{})).To(BeEquivalentTo(1))
			Expect(countRows(db, &folderDatamodel.DateFolder{})).To(BeEquivalentTo(1))
		})

		It("rejects an impossible date without touching the database", func() {
			_, err := resolver.Resolve(ctx, categoryID, 2025, 2, 29)
			Expect(err).To(HaveOccurred())
			Expect(countRows(db, &folderDatamodel.YearFolder{})).To(BeZero())
		})

		It("loads the chain of a date folder", func() {
			df, err := resolver.Resolve(ctx, categoryID, 2024, 2, 29)
			Expect(err).NotTo(HaveOccurred())

			chain, err := resolver.Chain(ctx, df.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.CategoryID).To(Equal(categoryID))
			Expect(chain.Date().Format("2006-01-02")).To(Equal("2024-02-29"))

			_, err = resolver.Chain(ctx, 999999)
			Expect(folder.IsNotFound(err)).To(BeTrue())
		})
	})
})
