package telegram

// User-facing replies. The bot speaks Indonesian.
const (
	msgNotRegistered = "Maaf, Anda tidak terdaftar untuk menggunakan bot ini."
	msgNoAccess      = "Anda tidak memiliki akses ke fitur ini."
	msgTryAgain      = "Terjadi kesalahan. Silakan coba lagi."

	msgStart = "Halo! Kirim /menu untuk melihat fitur yang tersedia."

	msgLocationEntry = "Mode lokasi aktif.\n" +
		"/alamat <teks> - cari koordinat dari alamat\n" +
		"/koordinat <lat> <lon> - cari alamat dari koordinat\n" +
		"/show_map <alamat atau lat,lon> - tautan peta\n" +
		"/ukur, /ukur_motor, /ukur_mobil - ukur jarak dua titik\n" +
		"/batal - batalkan pengukuran\n" +
		"Kirim koordinat \"lat, lon\" atau share lokasi untuk mencari alamat."

	msgArchiveEntry = "Mode arsip aktif.\n" +
		"/zip - kumpulkan file lalu /kirim untuk membuat arsip\n" +
		"/extract - unggah satu arsip lalu /kirim untuk mengekstrak\n" +
		"/search - unggah satu arsip lalu /cari <pola>\n" +
		"/stats - statistik pemakaian\n" +
		"/help - bantuan"

	msgOcrEntry = "Mode OCR aktif. Kirim foto atau file gambar untuk dibaca teksnya.\n" +
		"/ocr_clear - hapus file OCR tersimpan"

	msgKmlEntry = "Mode KML aktif.\n" +
		"/add <lat> <lon> [nama] - tambah titik\n" +
		"/addpoint <nama> - nama untuk titik berikutnya\n" +
		"/alwayspoint [nama] - nama tetap untuk semua titik\n" +
		"/startline [nama], /endline, /cancelline - rekam garis\n" +
		"/buat - ekspor dokumen KML\n" +
		"/lihat - ringkasan data\n" +
		"/hapus - hapus semua data\n" +
		"Share lokasi untuk menambah titik atau memperpanjang garis."

	msgWorkbookEntry = "Mode workbook aktif. Kirim nama sheet sebagai teks, lalu kirim foto-foto.\n" +
		"Perintah: send (buat dokumen), cek (daftar sheet), clear (hapus semua)."

	msgGeotagsEntry = "Mode geotag aktif. Kirim foto dan lokasi (urutan bebas) untuk membuat foto bergeotag.\n" +
		"/alwaystag - kunci satu lokasi untuk semua foto berikutnya\n" +
		"/set_time <YYYY-MM-DD HH:MM> - atur waktu manual, /set_time reset untuk kembali otomatis"

	msgOcrBusy         = "Masih memproses gambar sebelumnya, mohon tunggu."
	msgOcrNoText       = "Tidak ada teks yang terbaca dari gambar ini."
	msgMeasureExpired  = "Sesi pengukuran kedaluwarsa. Kirim /ukur untuk memulai lagi."
	msgMeasureCanceled = "Pengukuran dibatalkan."
	msgMeasureFirst    = "Titik pertama diterima. Kirim titik kedua."
)
